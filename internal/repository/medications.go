package repository

import (
	"context"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type medicationRepository struct {
	db *sqlx.DB
}

const medicationColumns = `id, patient_id, report_id, name, dosage, frequency, instructions, side_effects,
	is_active, prescription_date, start_date, end_date, created_at, updated_at`

func (r *medicationRepository) Create(ctx context.Context, med *models.Medication) error {
	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES (:id, :patient_id, :report_id, :name, :dosage, :frequency, :instructions, :side_effects,
			:is_active, :prescription_date, :start_date, :end_date, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, med)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *medicationRepository) GetByID(ctx context.Context, id string) (*models.Medication, error) {
	var med models.Medication

	err := r.db.GetContext(ctx, &med, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &med, nil
}

func (r *medicationRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Medication, error) {
	meds := []*models.Medication{}

	err := r.db.SelectContext(ctx, &meds, `SELECT `+medicationColumns+` FROM medications WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}

	return meds, nil
}

func (r *medicationRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE medications SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, now())
	return affectedOrNotFound(res, err)
}

func (r *medicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	return affectedOrNotFound(res, err)
}
