package repository

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type reportRepository struct {
	db *sqlx.DB
}

const reportColumns = `id, patient_id, file_name, file_url, file_key, content_type, report_type,
	original_text, extracted_data, summary, status, uploaded_at, created_at, updated_at`

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES (:id, :patient_id, :file_name, :file_url, :file_key, :content_type, :report_type,
			:original_text, :extracted_data, :summary, :status, :uploaded_at, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, report)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report

	err := r.db.GetContext(ctx, &report, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *reportRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Report, error) {
	reports := []*models.Report{}

	err := r.db.SelectContext(ctx, &reports, `SELECT `+reportColumns+` FROM reports WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *reportRepository) UpdateExtraction(ctx context.Context, id, text string, reportType models.ReportType) error {
	query := `
		UPDATE reports
		SET original_text = $2, report_type = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	res, err := r.db.ExecContext(ctx, query, id, text, reportType, now(), models.StatusProcessing)
	if err := affectedOrNotFound(res, err); err != ErrNotFound {
		return err
	}
	return r.missingOrStale(ctx, id)
}

func (r *reportRepository) Finish(ctx context.Context, id string, outcome models.ReportOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE reports
		SET status = $2, summary = $3, extracted_data = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		id,
		outcome.Status,
		outcome.Summary,
		outcome.ExtractedData,
		now(),
		models.StatusProcessing,
	)
	if err := affectedOrNotFound(res, err); err != ErrNotFound {
		return err
	}
	return r.missingOrStale(ctx, id)
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	return affectedOrNotFound(res, err)
}

// missingOrStale explains why a guarded update touched no rows.
func (r *reportRepository) missingOrStale(ctx context.Context, id string) error {
	var status models.ReportStatus
	err := r.db.GetContext(ctx, &status, `SELECT status FROM reports WHERE id = $1`, id)
	if noRows(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("report %s is %s: %w", id, status, ErrStaleState)
}
