package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/analyzer"
	"github.com/BerylCAtieno/health-records-api/internal/db"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/stretchr/testify/require"
)

var testLogger = utils.NewLoggerTo(io.Discard, "error")

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	database, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return repository.NewSQLStore(database)
}

type fakeBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}}
}

func (b *fakeBlob) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if b.failPut {
		return "", errors.New("bucket unavailable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "https://blob.test/" + key, nil
}

func (b *fakeBlob) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *fakeBlob) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type fakeExtractor struct {
	text    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, _ []byte, _ string) (string, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

// countingAnalyzer wraps the real analyzer and records which stages ran.
type countingAnalyzer struct {
	inner        *analyzer.MedicalAnalyzer
	analysis     *models.MedicalAnalysis
	medications  []models.MedicationInfo
	analyzeCalls atomic.Int32
	medCalls     atomic.Int32
	panicOn      bool
}

func newCountingAnalyzer() *countingAnalyzer {
	return &countingAnalyzer{inner: analyzer.NewMedicalAnalyzer(nil, testLogger)}
}

func (a *countingAnalyzer) Analyze(ctx context.Context, text string) *models.MedicalAnalysis {
	a.analyzeCalls.Add(1)
	if a.panicOn {
		panic("model client exploded")
	}
	if a.analysis != nil {
		return a.analysis
	}
	return a.inner.Analyze(ctx, text)
}

func (a *countingAnalyzer) ExtractMedications(ctx context.Context, text string) []models.MedicationInfo {
	a.medCalls.Add(1)
	if a.medications != nil {
		return a.medications
	}
	return a.inner.ExtractMedications(ctx, text)
}

func (a *countingAnalyzer) GenerateHealthSummary(ctx context.Context, reports []models.Report, meds []models.Medication) (string, error) {
	return a.inner.GenerateHealthSummary(ctx, reports, meds)
}

type fakeMatcher struct {
	match analyzer.SpecializationMatch
	calls atomic.Int32
}

func (m *fakeMatcher) Match(context.Context, string) analyzer.SpecializationMatch {
	m.calls.Add(1)
	return m.match
}

func seedUser(t *testing.T, store *repository.Store, id string, role models.Role, specialization string) *models.User {
	t.Helper()
	u := &models.User{
		ID:             id,
		Email:          id + "@example.com",
		Name:           "User " + id,
		Role:           role,
		Specialization: specialization,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

// seedProcessedReport stores a completed report carrying text.
func seedProcessedReport(t *testing.T, store *repository.Store, id, patientID, text string) *models.Report {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	r := &models.Report{
		ID:          id,
		PatientID:   patientID,
		FileName:    "report.pdf",
		FileURL:     "https://blob.test/" + id,
		ContentType: "application/pdf",
		ReportType:  models.ReportTypeGeneral,
		Status:      models.StatusProcessing,
		UploadedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Reports.Create(ctx, r))
	if text != "" {
		require.NoError(t, store.Reports.UpdateExtraction(ctx, id, text, models.ReportTypeGeneral))
		require.NoError(t, store.Reports.Finish(ctx, id, models.ReportOutcome{
			Status:  models.StatusCompleted,
			Summary: "Routine results.",
		}))
	}
	return r
}

func actorFor(u *models.User) models.Actor {
	return models.Actor{UserID: u.ID, Role: u.Role, Email: u.Email}
}
