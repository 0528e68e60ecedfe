package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/db"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLStore(database)
}

func newReport(id, patientID string) *models.Report {
	ts := time.Now().UTC()
	return &models.Report{
		ID:          id,
		PatientID:   patientID,
		FileName:    "scan.pdf",
		FileURL:     "http://blob/scan.pdf",
		FileKey:     "reports/p1/" + id + "/scan.pdf",
		ContentType: "application/pdf",
		ReportType:  models.ReportTypeGeneral,
		Status:      models.StatusProcessing,
		UploadedAt:  ts,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Reports.Create(ctx, newReport("r1", "p1")))

	got, err := store.Reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.OriginalText)
	assert.Equal(t, models.StatusProcessing, got.Status)

	require.NoError(t, store.Reports.UpdateExtraction(ctx, "r1", "Hemoglobin 13.5", models.ReportTypeBloodTest))

	analysis := &models.MedicalAnalysis{
		KeyFindings: []models.KeyFinding{{Parameter: "Hemoglobin", Value: "13.5", Status: models.FindingNormal}},
		Summary:     "fine",
		RiskLevel:   models.RiskLow,
	}
	err = store.Reports.Finish(ctx, "r1", models.ReportOutcome{
		Status:        models.StatusCompleted,
		Summary:       "fine",
		ExtractedData: models.NewClinicalData(analysis),
	})
	require.NoError(t, err)

	got, err = store.Reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "Hemoglobin 13.5", got.Text())
	assert.Equal(t, models.ReportTypeBloodTest, got.ReportType)
	require.NotNil(t, got.ExtractedData)
	assert.Equal(t, models.AnalysisClinical, got.ExtractedData.Kind)
	assert.Equal(t, "Hemoglobin", got.ExtractedData.Clinical.KeyFindings[0].Parameter)
}

func TestReportStatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Reports.Create(ctx, newReport("r1", "p1")))

	require.NoError(t, store.Reports.Finish(ctx, "r1", models.ReportOutcome{Status: models.StatusFailed, Summary: "x"}))

	err := store.Reports.Finish(ctx, "r1", models.ReportOutcome{Status: models.StatusCompleted, Summary: "y"})
	assert.ErrorIs(t, err, ErrStaleState)

	err = store.Reports.UpdateExtraction(ctx, "r1", "late text", models.ReportTypeGeneral)
	assert.ErrorIs(t, err, ErrStaleState)

	err = store.Reports.Finish(ctx, "r1", models.ReportOutcome{Status: models.StatusProcessing})
	assert.Error(t, err)

	got, err := store.Reports.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "x", *got.Summary)
}

func TestReportWritesAfterDeleteReportNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Reports.Create(ctx, newReport("r1", "p1")))
	require.NoError(t, store.Reports.Delete(ctx, "r1"))

	err := store.Reports.UpdateExtraction(ctx, "r1", "text", models.ReportTypeGeneral)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Reports.Finish(ctx, "r1", models.ReportOutcome{Status: models.StatusCompleted})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Reports.GetByID(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func newSharedReport(id, patientID, reportID string, expires time.Time) *models.SharedReport {
	ts := time.Now().UTC()
	return &models.SharedReport{
		ID:                     id,
		PatientID:              patientID,
		DoctorID:               "d1",
		DoctorEmail:            "doc@example.com",
		ReportID:               reportID,
		DetectedSpecialization: "Cardiologist",
		ShareToken:             "token-" + id,
		ExpiresAt:              expires,
		IsActive:               true,
		ApprovalStatus:         models.ApprovalPending,
		TreatmentStatus:        models.TreatmentActive,
		CreatedAt:              ts,
		UpdatedAt:              ts,
	}
}

func TestSharedReportUniquePerPatientAndReport(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	expires := time.Now().UTC().Add(24 * time.Hour)

	require.NoError(t, store.SharedReports.Create(ctx, newSharedReport("s1", "p1", "r1", expires)))

	err := store.SharedReports.Create(ctx, newSharedReport("s2", "p1", "r1", expires))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Another patient can reference the same report id.
	require.NoError(t, store.SharedReports.Create(ctx, newSharedReport("s3", "p2", "r1", expires)))

	got, err := store.SharedReports.GetByPatientAndReport(ctx, "p1", "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
}

func TestSharedReportApprovalTransition(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SharedReports.Create(ctx, newSharedReport("s1", "p1", "r1", time.Now().UTC().Add(time.Hour))))

	pending, err := store.SharedReports.ListByDoctorEmail(ctx, "DOC@example.com", models.ApprovalPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, store.SharedReports.UpdateApproval(ctx, "s1", models.ApprovalPending, models.ApprovalApproved))

	err = store.SharedReports.UpdateApproval(ctx, "s1", models.ApprovalPending, models.ApprovalApproved)
	assert.True(t, errors.Is(err, ErrStaleState))

	err = store.SharedReports.UpdateApproval(ctx, "missing", models.ApprovalPending, models.ApprovalApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	approved, err := store.SharedReports.ListByDoctorEmail(ctx, "doc@example.com", models.ApprovalApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, models.ApprovalApproved, approved[0].ApprovalStatus)

	require.NoError(t, store.SharedReports.IncrementViews(ctx, "s1"))
	require.NoError(t, store.SharedReports.SetHidden(ctx, "s1", true))
	require.NoError(t, store.SharedReports.UpdateTreatment(ctx, "s1", models.TreatmentCompleted))

	got, err := store.SharedReports.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
	assert.True(t, got.HideFromDashboard)
	assert.Equal(t, models.TreatmentCompleted, got.TreatmentStatus)
}

func TestDeactivateExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	current := time.Now().UTC()

	require.NoError(t, store.SharedReports.Create(ctx, newSharedReport("old", "p1", "r1", current.Add(-time.Minute))))
	require.NoError(t, store.SharedReports.Create(ctx, newSharedReport("new", "p1", "r2", current.Add(time.Hour))))

	n, err := store.SharedReports.DeactivateExpired(ctx, current)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	old, err := store.SharedReports.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	fresh, err := store.SharedReports.GetByID(ctx, "new")
	require.NoError(t, err)
	assert.True(t, fresh.IsActive)
}

func TestFindDoctorsBySpecialization(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Now().UTC()

	users := []*models.User{
		{ID: "d2", Email: "b@x.com", Name: "B", Role: models.RoleDoctor, Specialization: "Cardiologist", CreatedAt: base.Add(time.Minute)},
		{ID: "d1", Email: "a@x.com", Name: "A", Role: models.RoleDoctor, Specialization: "cardiologist", CreatedAt: base},
		{ID: "p1", Email: "p@x.com", Name: "P", Role: models.RolePatient, Specialization: "Cardiologist", CreatedAt: base},
		{ID: "d3", Email: "c@x.com", Name: "C", Role: models.RoleDoctor, Specialization: "Neurologist", CreatedAt: base},
	}
	for _, u := range users {
		require.NoError(t, store.Users.Create(ctx, u))
	}

	doctors, err := store.Users.FindDoctorsBySpecialization(ctx, "CARDIOLOGIST")
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "d1", doctors[0].ID)
	assert.Equal(t, "d2", doctors[1].ID)

	err = store.Users.Create(ctx, &models.User{ID: "dup", Email: "a@x.com", Name: "A", Role: models.RoleDoctor, CreatedAt: base})
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := store.Users.GetByEmail(ctx, "A@X.COM")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "d1", byEmail.ID)
}

func TestTimelineRoundTripsPayload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	risk := models.RiskHigh
	severity := models.SeverityCritical
	reportID := "r1"

	entry := &models.TimelineEntry{
		ID:            "t1",
		UserID:        "p1",
		ReportID:      &reportID,
		EventDate:     time.Now().UTC(),
		EventType:     models.EventScan,
		Title:         "Chest X-Ray",
		Analysis:      &models.MedicalAnalysis{Summary: "opacity", RiskLevel: models.RiskHigh},
		Metrics:       map[string]string{"opacity": "present"},
		RiskLevel:     &risk,
		SeverityLevel: &severity,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Timeline.Create(ctx, entry))

	entries, err := store.Timeline.ListByUser(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EventScan, entries[0].EventType)
	assert.Equal(t, "present", entries[0].Metrics["opacity"])
	assert.Equal(t, "opacity", entries[0].Analysis.Summary)
	assert.Equal(t, models.SeverityCritical, *entries[0].SeverityLevel)
}

func TestMedicationToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ts := time.Now().UTC()

	med := &models.Medication{
		ID: "m1", PatientID: "p1", Name: "Amoxicillin", Dosage: "500mg",
		Frequency: models.FrequencyTwiceDaily, IsActive: true, CreatedAt: ts, UpdatedAt: ts,
	}
	require.NoError(t, store.Medications.Create(ctx, med))
	require.NoError(t, store.Medications.SetActive(ctx, "m1", false))

	got, err := store.Medications.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, store.Medications.Delete(ctx, "m1"))
	assert.ErrorIs(t, store.Medications.Delete(ctx, "m1"), ErrNotFound)
	assert.ErrorIs(t, store.Medications.SetActive(ctx, "m1", true), ErrNotFound)
}
