package services

import (
	"context"
	"testing"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	patient := seedUser(t, store, "p1", models.RolePatient, "")
	svc := NewHealthService(store, newCountingAnalyzer(), testLogger)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, offset := range []int{2, 0, 5} {
		require.NoError(t, store.Timeline.Create(ctx, &models.TimelineEntry{
			ID:        []string{"a", "b", "c"}[i],
			UserID:    patient.ID,
			EventDate: base.AddDate(0, 0, offset),
			EventType: models.EventUploadedReport,
			Title:     "Report",
			CreatedAt: base,
		}))
	}

	entries, err := svc.Timeline(ctx, actorFor(patient))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
	assert.Equal(t, "b", entries[2].ID)
}

func TestHealthSummaryWithoutModel(t *testing.T) {
	store := newTestStore(t)
	patient := seedUser(t, store, "p1", models.RolePatient, "")
	seedProcessedReport(t, store, "r1", patient.ID, bloodText)
	svc := NewHealthService(store, newCountingAnalyzer(), testLogger)

	summary, err := svc.HealthSummary(context.Background(), actorFor(patient))
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestMedicationToggleAndOwnership(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	patient := seedUser(t, store, "p1", models.RolePatient, "")
	other := seedUser(t, store, "p2", models.RolePatient, "")
	svc := NewMedicationService(store, testLogger)

	now := time.Now().UTC()
	require.NoError(t, store.Medications.Create(ctx, &models.Medication{
		ID: "m1", PatientID: patient.ID, Name: "Metformin", Frequency: models.FrequencyTwiceDaily,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))

	med, err := svc.Toggle(ctx, actorFor(patient), "m1")
	require.NoError(t, err)
	assert.False(t, med.IsActive)

	_, err = svc.Toggle(ctx, actorFor(other), "m1")
	assert.Equal(t, 404, statusOf(t, err))

	list, err := svc.List(ctx, actorFor(patient))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)

	require.NoError(t, svc.Delete(ctx, actorFor(patient), "m1"))
	list, err = svc.List(ctx, actorFor(patient))
	require.NoError(t, err)
	assert.Empty(t, list)
}
