// Package scheduler runs periodic maintenance jobs in the background.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/robfig/cron/v3"
)

// Expirer deactivates shared reports whose expiry has passed.
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	logger  *utils.Logger
	timeout time.Duration
}

func New(expirer Expirer, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Start registers the expiry sweep on schedule and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweepExpired); err != nil {
		return fmt.Errorf("register expiry sweep %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", "expiry_schedule", schedule)
	return nil
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		s.logger.Error("Expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("Deactivated expired shared reports", "count", n)
	}
}
