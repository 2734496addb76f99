// Package postgres holds the gorm implementations of the domain repositories.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// notFound swaps gorm's record-not-found for the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// affected checks the result of an update or delete that must hit a row.
func affected(res *gorm.DB, step string, missing error) error {
	if res.Error != nil {
		return fmt.Errorf("%s: %w", step, res.Error)
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}
