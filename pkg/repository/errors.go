package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes translated by MapError.
const (
	codeUniqueViolation = "23505"
	codeInvalidTextRepr = "22P02"
)

// MapError translates driver errors into domain errors: sql.ErrNoRows and
// malformed identifiers (22P02) become notFoundErr, unique violations (23505)
// become duplicateErr. Anything else is returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return duplicateErr
		case codeInvalidTextRepr:
			return notFoundErr
		}
	}
	return err
}
