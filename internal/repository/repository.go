package repository

import (
	"context"
	"errors"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned by writes that target a record that no longer exists.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a create would violate a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrStaleState is returned when a conditional update finds the record in another state.
	ErrStaleState = errors.New("record is no longer in the expected state")
)

// Lookups (GetByID and friends) return nil, nil when nothing matches.

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.Report, error)
	UpdateExtraction(ctx context.Context, id, text string, reportType models.ReportType) error
	Finish(ctx context.Context, id string, outcome models.ReportOutcome) error
	Delete(ctx context.Context, id string) error
}

type MedicationRepository interface {
	Create(ctx context.Context, med *models.Medication) error
	GetByID(ctx context.Context, id string) (*models.Medication, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.Medication, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type TimelineRepository interface {
	Create(ctx context.Context, entry *models.TimelineEntry) error
	// ListByUser returns entries in no particular order; callers sort.
	ListByUser(ctx context.Context, userID string) ([]*models.TimelineEntry, error)
}

type SharedReportRepository interface {
	// Create returns ErrDuplicate when the patient already has a relationship for the report.
	Create(ctx context.Context, sr *models.SharedReport) error
	GetByID(ctx context.Context, id string) (*models.SharedReport, error)
	GetByPatientAndReport(ctx context.Context, patientID, reportID string) (*models.SharedReport, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.SharedReport, error)
	ListByDoctorEmail(ctx context.Context, email string, status models.ApprovalStatus) ([]*models.SharedReport, error)
	// UpdateApproval moves the record from one approval status to another,
	// returning ErrStaleState if it is not currently in from.
	UpdateApproval(ctx context.Context, id string, from, to models.ApprovalStatus) error
	UpdateTreatment(ctx context.Context, id string, status models.TreatmentStatus) error
	SetHidden(ctx context.Context, id string, hidden bool) error
	IncrementViews(ctx context.Context, id string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindDoctorsBySpecialization matches case-insensitively, oldest account first.
	FindDoctorsBySpecialization(ctx context.Context, specialization string) ([]*models.User, error)
}

// Store bundles the collections the services work against.
type Store struct {
	Reports       ReportRepository
	Medications   MedicationRepository
	Timeline      TimelineRepository
	SharedReports SharedReportRepository
	Users         UserRepository
}

// NewSQLStore returns a Store backed by a sqlx database.
func NewSQLStore(db *sqlx.DB) *Store {
	return &Store{
		Reports:       &reportRepository{db: db},
		Medications:   &medicationRepository{db: db},
		Timeline:      &timelineRepository{db: db},
		SharedReports: &sharedReportRepository{db: db},
		Users:         &userRepository{db: db},
	}
}

func now() time.Time {
	return time.Now().UTC()
}
