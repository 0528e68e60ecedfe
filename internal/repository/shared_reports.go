package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type sharedReportRepository struct {
	db *sqlx.DB
}

const sharedReportColumns = `id, patient_id, doctor_id, doctor_email, report_id, report_url,
	detected_specialization, report_summary, share_token, expires_at, is_active, approval_status,
	treatment_status, hide_from_dashboard, view_count, created_at, updated_at`

func (r *sharedReportRepository) Create(ctx context.Context, sr *models.SharedReport) error {
	query := `
		INSERT INTO shared_reports (` + sharedReportColumns + `)
		VALUES (:id, :patient_id, :doctor_id, :doctor_email, :report_id, :report_url,
			:detected_specialization, :report_summary, :share_token, :expires_at, :is_active, :approval_status,
			:treatment_status, :hide_from_dashboard, :view_count, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, sr)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *sharedReportRepository) GetByID(ctx context.Context, id string) (*models.SharedReport, error) {
	return r.getOne(ctx, `SELECT `+sharedReportColumns+` FROM shared_reports WHERE id = $1`, id)
}

func (r *sharedReportRepository) GetByPatientAndReport(ctx context.Context, patientID, reportID string) (*models.SharedReport, error) {
	return r.getOne(ctx,
		`SELECT `+sharedReportColumns+` FROM shared_reports WHERE patient_id = $1 AND report_id = $2`,
		patientID, reportID)
}

func (r *sharedReportRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.SharedReport, error) {
	return r.list(ctx, `SELECT `+sharedReportColumns+` FROM shared_reports WHERE patient_id = $1`, patientID)
}

func (r *sharedReportRepository) ListByDoctorEmail(ctx context.Context, email string, status models.ApprovalStatus) ([]*models.SharedReport, error) {
	return r.list(ctx,
		`SELECT `+sharedReportColumns+` FROM shared_reports WHERE lower(doctor_email) = lower($1) AND approval_status = $2`,
		email, status)
}

func (r *sharedReportRepository) UpdateApproval(ctx context.Context, id string, from, to models.ApprovalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shared_reports SET approval_status = $2, updated_at = $3
		WHERE id = $1 AND approval_status = $4
	`, id, to, now(), from)
	if err := affectedOrNotFound(res, err); err != ErrNotFound {
		return err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	return fmt.Errorf("shared report %s is %s: %w", id, current.ApprovalStatus, ErrStaleState)
}

func (r *sharedReportRepository) UpdateTreatment(ctx context.Context, id string, status models.TreatmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shared_reports SET treatment_status = $2, updated_at = $3 WHERE id = $1`,
		id, status, now())
	return affectedOrNotFound(res, err)
}

func (r *sharedReportRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shared_reports SET hide_from_dashboard = $2, updated_at = $3 WHERE id = $1`,
		id, hidden, now())
	return affectedOrNotFound(res, err)
}

func (r *sharedReportRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shared_reports SET view_count = view_count + 1 WHERE id = $1`, id)
	return affectedOrNotFound(res, err)
}

// DeactivateExpired compares expiry in Go; stored timestamps are text in sqlite.
func (r *sharedReportRepository) DeactivateExpired(ctx context.Context, at time.Time) (int, error) {
	active, err := r.list(ctx, `SELECT `+sharedReportColumns+` FROM shared_reports WHERE is_active = 1`)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sr := range active {
		if at.Before(sr.ExpiresAt) {
			continue
		}
		res, err := r.db.ExecContext(ctx,
			`UPDATE shared_reports SET is_active = 0, updated_at = $2 WHERE id = $1 AND is_active = 1`,
			sr.ID, now())
		if err := affectedOrNotFound(res, err); err != nil {
			if err == ErrNotFound {
				continue
			}
			return count, err
		}
		count++
	}

	return count, nil
}

func (r *sharedReportRepository) getOne(ctx context.Context, query string, args ...any) (*models.SharedReport, error) {
	var sr models.SharedReport

	err := r.db.GetContext(ctx, &sr, query, args...)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &sr, nil
}

func (r *sharedReportRepository) list(ctx context.Context, query string, args ...any) ([]*models.SharedReport, error) {
	out := []*models.SharedReport{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
