package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
)

const uniqueViolation = "23505"

// Translate maps pgx errors onto the apperr sentinels. uniqueFields maps a
// constraint name to the field reported in the conflict.
func Translate(err error, kind string, uniqueFields map[string]string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(kind)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = "key"
		}
		return apperr.Conflict(kind, field)
	}
	return err
}
