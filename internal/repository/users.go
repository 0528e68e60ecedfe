package repository

import (
	"context"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type userRepository struct {
	db *sqlx.DB
}

const userColumns = `id, email, name, role, specialization, created_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :name, :role, :specialization, :created_at)
	`, user)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepository) FindDoctorsBySpecialization(ctx context.Context, specialization string) ([]*models.User, error) {
	doctors := []*models.User{}

	err := r.db.SelectContext(ctx, &doctors, `
		SELECT `+userColumns+` FROM users
		WHERE role = $1 AND lower(specialization) = lower($2)
		ORDER BY created_at, id
	`, models.RoleDoctor, specialization)
	if err != nil {
		return nil, err
	}

	return doctors, nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User

	err := r.db.GetContext(ctx, &user, query, arg)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}
