package repository

import (
	"database/sql"
	"errors"
	"strings"
)

// affectedOrNotFound converts a zero-row write into ErrNotFound.
func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
