package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
)

func TestTranslate(t *testing.T) {
	fields := map[string]string{"doctors_email_key": "email"}

	if Translate(nil, "doctor", fields) != nil {
		t.Error("expected nil for nil error")
	}

	err := Translate(fmt.Errorf("scan: %w", pgx.ErrNoRows), "doctor", fields)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	err = Translate(&pgconn.PgError{Code: "23505", ConstraintName: "doctors_email_key"}, "doctor", fields)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "conflict: doctor with this email already exists" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	other := errors.New("connection reset")
	if Translate(other, "doctor", fields) != other {
		t.Error("expected unrelated errors to pass through")
	}
}
