package services

import (
	"context"
	"slices"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/samber/lo"
)

type HealthService interface {
	Timeline(ctx context.Context, actor models.Actor) ([]*models.TimelineEntry, error)
	// HealthSummary writes a plain-text summary of the patient's completed
	// reports and active medications.
	HealthSummary(ctx context.Context, actor models.Actor) (string, error)
}

type healthService struct {
	store    *repository.Store
	analyzer ReportAnalyzer
	logger   *utils.Logger
}

func NewHealthService(store *repository.Store, reportAnalyzer ReportAnalyzer, logger *utils.Logger) HealthService {
	return &healthService{store: store, analyzer: reportAnalyzer, logger: logger}
}

// Timeline sorts in memory; the store only filters by user.
func (s *healthService) Timeline(ctx context.Context, actor models.Actor) ([]*models.TimelineEntry, error) {
	entries, err := s.store.Timeline.ListByUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to load timeline", "error", err, "user_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to load timeline")
	}

	slices.SortStableFunc(entries, func(a, b *models.TimelineEntry) int {
		return b.EventDate.Compare(a.EventDate)
	})
	return entries, nil
}

func (s *healthService) HealthSummary(ctx context.Context, actor models.Actor) (string, error) {
	reports, err := s.store.Reports.ListByPatient(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to load reports", "error", err, "patient_id", actor.UserID)
		return "", utils.NewInternalError("Failed to load reports")
	}
	meds, err := s.store.Medications.ListByPatient(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to load medications", "error", err, "patient_id", actor.UserID)
		return "", utils.NewInternalError("Failed to load medications")
	}

	completed := lo.FilterMap(reports, func(r *models.Report, _ int) (models.Report, bool) {
		return *r, r.Status == models.StatusCompleted
	})
	slices.SortFunc(completed, func(a, b models.Report) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	active := lo.FilterMap(meds, func(m *models.Medication, _ int) (models.Medication, bool) {
		return *m, m.IsActive
	})

	summary, err := s.analyzer.GenerateHealthSummary(ctx, completed, active)
	if err != nil {
		s.logger.Error("Failed to generate health summary", "error", err, "patient_id", actor.UserID)
		return "", utils.NewServiceUnavailableError("Health summary is temporarily unavailable").WithCause(err)
	}
	return summary, nil
}
