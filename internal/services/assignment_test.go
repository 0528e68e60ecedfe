package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/analyzer"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardiacText = "ECG shows ST elevation in leads II, III and aVF. Troponin elevated. Chest pain on exertion."

type assignmentFixture struct {
	store   *repository.Store
	matcher *fakeMatcher
	svc     *assignmentService
	patient *models.User
}

func newAssignmentFixture(t *testing.T, specialization string) *assignmentFixture {
	t.Helper()
	store := newTestStore(t)
	matcher := &fakeMatcher{match: analyzer.SpecializationMatch{Specialization: specialization, Confidence: 0.9}}
	svc := NewAssignmentService(store, matcher, 0, testLogger).(*assignmentService)
	patient := seedUser(t, store, "patient-1", models.RolePatient, "")
	return &assignmentFixture{store: store, matcher: matcher, svc: svc, patient: patient}
}

func (f *assignmentFixture) assign(t *testing.T, reportID string) (*models.AssignDoctorResponse, error) {
	t.Helper()
	return f.svc.AssignDoctor(context.Background(), actorFor(f.patient), models.AssignDoctorRequest{
		PatientID: f.patient.ID,
		ReportID:  reportID,
		ReportURL: "https://blob.test/" + reportID,
	})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode
}

func TestAssignDoctorCreatesPendingRelationship(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	doctor := seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	before := time.Now().UTC()
	resp, err := f.assign(t, "r1")
	require.NoError(t, err)

	assert.Equal(t, doctor.ID, resp.SuggestedDoctor.ID)
	assert.Equal(t, "Cardiologist", resp.AIDetection.Specialization)
	assert.Equal(t, 0.9, resp.AIDetection.Confidence)
	assert.Equal(t, models.ApprovalPending, resp.ApprovalStatus)
	assert.False(t, resp.AlreadyAssigned)
	assert.WithinDuration(t, before.Add(DefaultShareTTL), resp.ExpiresAt, time.Minute)

	sr, err := f.store.SharedReports.GetByID(context.Background(), resp.SharedReportID)
	require.NoError(t, err)
	require.NotNil(t, sr)
	assert.Equal(t, doctor.Email, sr.DoctorEmail)
	assert.Equal(t, models.TreatmentActive, sr.TreatmentStatus)
	assert.True(t, sr.IsActive)
	assert.Len(t, sr.ShareToken, 32)
	assert.Equal(t, "Routine results.", sr.ReportSummary)
}

func TestAssignDoctorIsIdempotent(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	first, err := f.assign(t, "r1")
	require.NoError(t, err)

	// A second doctor appearing later must not change the answer.
	seedUser(t, f.store, "doc-0", models.RoleDoctor, "Cardiologist")

	second, err := f.assign(t, "r1")
	require.NoError(t, err)

	assert.Equal(t, first.SharedReportID, second.SharedReportID)
	assert.Equal(t, first.SuggestedDoctor.ID, second.SuggestedDoctor.ID)
	assert.Equal(t, first.SuggestedDoctor.Name, second.SuggestedDoctor.Name)
	assert.True(t, second.AlreadyAssigned)
	assert.EqualValues(t, 1, f.matcher.calls.Load())

	list, err := f.store.SharedReports.ListByPatient(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAssignDoctorConcurrentRequestsShareOneRecord(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.assign(t, "r1")
			if assert.NoError(t, err) {
				ids[i] = resp.SharedReportID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	list, err := f.store.SharedReports.ListByPatient(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAssignDoctorRequiresReportText(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, "")

	_, err := f.assign(t, "r1")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.ErrorIs(t, err, ErrInsufficientReportText)
	assert.EqualValues(t, 0, f.matcher.calls.Load())
}

func TestAssignDoctorRejectsFailedExtraction(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	ctx := context.Background()
	seedProcessedReport(t, f.store, "r1", f.patient.ID, "")
	require.NoError(t, f.store.Reports.UpdateExtraction(ctx, "r1", "ocr extraction failed: context deadline exceeded", models.ReportTypeGeneral))
	require.NoError(t, f.store.Reports.Finish(ctx, "r1", models.ReportOutcome{Status: models.StatusFailed, Summary: "Processing failed."}))

	_, err := f.assign(t, "r1")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.ErrorIs(t, err, ErrInsufficientReportText)
	assert.EqualValues(t, 0, f.matcher.calls.Load())

	list, err := f.store.SharedReports.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignDoctorFallsBackToGeneralPhysician(t *testing.T) {
	f := newAssignmentFixture(t, "Pulmonologist")
	gp := seedUser(t, f.store, "doc-gp", models.RoleDoctor, analyzer.DefaultSpecialization)
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	resp, err := f.assign(t, "r1")
	require.NoError(t, err)

	assert.Equal(t, gp.ID, resp.SuggestedDoctor.ID)
	assert.Equal(t, "Pulmonologist", resp.AIDetection.Specialization)

	sr, err := f.store.SharedReports.GetByID(context.Background(), resp.SharedReportID)
	require.NoError(t, err)
	assert.Equal(t, "Pulmonologist", sr.DetectedSpecialization)
}

func TestAssignDoctorNoDoctorAvailable(t *testing.T) {
	f := newAssignmentFixture(t, "Pulmonologist")
	seedUser(t, f.store, "doc-derm", models.RoleDoctor, "Dermatologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	_, err := f.assign(t, "r1")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.ErrorIs(t, err, ErrNoDoctorAvailable)
	assert.Contains(t, err.Error(), "Pulmonologist")
}

func TestAssignDoctorRejectsOtherActors(t *testing.T) {
	f := newAssignmentFixture(t, "Cardiologist")
	seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	other := seedUser(t, f.store, "patient-2", models.RolePatient, "")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	_, err := f.svc.AssignDoctor(context.Background(), actorFor(other), models.AssignDoctorRequest{
		PatientID: f.patient.ID,
		ReportID:  "r1",
	})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.svc.AssignDoctor(context.Background(), actorFor(other), models.AssignDoctorRequest{
		PatientID: "doc-1",
		ReportID:  "r1",
	})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestApprovalGate(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t, "Cardiologist")
	doctor := seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	resp, err := f.assign(t, "r1")
	require.NoError(t, err)

	patients, err := f.svc.DoctorPatients(ctx, actorFor(doctor))
	require.NoError(t, err)
	assert.Empty(t, patients)

	pending, err := f.svc.PendingApprovals(ctx, actorFor(doctor))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, resp.SharedReportID, pending[0].ID)

	_, err = f.svc.ViewSharedReport(ctx, actorFor(doctor), resp.SharedReportID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	approved, err := f.svc.ApproveDoctor(ctx, actorFor(f.patient), resp.SharedReportID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)

	patients, err = f.svc.DoctorPatients(ctx, actorFor(doctor))
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, f.patient.ID, patients[0].Patient.ID)
	require.Len(t, patients[0].SharedReports, 1)

	pending, err = f.svc.PendingApprovals(ctx, actorFor(doctor))
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.ApproveDoctor(ctx, actorFor(f.patient), resp.SharedReportID)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.ErrorIs(t, err, ErrAlreadyApproved)
}

func TestApproveDoctorOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t, "Cardiologist")
	doctor := seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	resp, err := f.assign(t, "r1")
	require.NoError(t, err)

	_, err = f.svc.ApproveDoctor(ctx, actorFor(doctor), resp.SharedReportID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.True(t, errors.Is(err, ErrUnauthorizedApproval))

	_, err = f.svc.ApproveDoctor(ctx, actorFor(f.patient), "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDoctorActions(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t, "Cardiologist")
	doctor := seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	resp, err := f.assign(t, "r1")
	require.NoError(t, err)
	_, err = f.svc.ApproveDoctor(ctx, actorFor(f.patient), resp.SharedReportID)
	require.NoError(t, err)

	detail, err := f.svc.ViewSharedReport(ctx, actorFor(doctor), resp.SharedReportID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.SharedReport.ViewCount)
	require.NotNil(t, detail.Report)
	assert.Equal(t, cardiacText, detail.Report.Text())
	assert.Equal(t, f.patient.Name, detail.Patient.Name)

	other := seedUser(t, f.store, "doc-2", models.RoleDoctor, "Cardiologist")
	_, err = f.svc.ViewSharedReport(ctx, actorFor(other), resp.SharedReportID)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	completed, err := f.svc.CompleteTreatment(ctx, actorFor(doctor), resp.SharedReportID)
	require.NoError(t, err)
	assert.Equal(t, models.TreatmentCompleted, completed.TreatmentStatus)

	hidden, err := f.svc.HideFromDashboard(ctx, actorFor(doctor), resp.SharedReportID)
	require.NoError(t, err)
	assert.True(t, hidden.HideFromDashboard)

	patients, err := f.svc.DoctorPatients(ctx, actorFor(doctor))
	require.NoError(t, err)
	assert.Empty(t, patients)

	mine, err := f.svc.ListForPatient(ctx, actorFor(f.patient))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestExpiryIsHardCutoff(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t, "Cardiologist")
	doctor := seedUser(t, f.store, "doc-1", models.RoleDoctor, "Cardiologist")
	seedProcessedReport(t, f.store, "r1", f.patient.ID, cardiacText)

	resp, err := f.assign(t, "r1")
	require.NoError(t, err)
	_, err = f.svc.ApproveDoctor(ctx, actorFor(f.patient), resp.SharedReportID)
	require.NoError(t, err)

	later := time.Now().UTC().Add(DefaultShareTTL + time.Hour)
	f.svc.now = func() time.Time { return later }

	// Still flagged active, but past expiry.
	patients, err := f.svc.DoctorPatients(ctx, actorFor(doctor))
	require.NoError(t, err)
	assert.Empty(t, patients)

	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sr, err := f.store.SharedReports.GetByID(ctx, resp.SharedReportID)
	require.NoError(t, err)
	assert.False(t, sr.IsActive)
}
