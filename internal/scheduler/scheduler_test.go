package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireStale(context.Context) (int, error) {
	e.calls.Add(1)
	return 2, e.err
}

var testLogger = utils.NewLoggerTo(io.Discard, "error")

func TestSweepExpired(t *testing.T) {
	exp := &countingExpirer{}
	s := New(exp, testLogger)

	s.sweepExpired()
	assert.Equal(t, int32(1), exp.calls.Load())

	exp.err = errors.New("store offline")
	s.sweepExpired()
	assert.Equal(t, int32(2), exp.calls.Load())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&countingExpirer{}, testLogger)

	err := s.Start("every tuesday-ish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register expiry sweep")
}

func TestStartAndStop(t *testing.T) {
	s := New(&countingExpirer{}, testLogger)

	require.NoError(t, s.Start("@hourly"))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
