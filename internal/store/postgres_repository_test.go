package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapConflict_RetryableSQLStates(t *testing.T) {
	for _, code := range []string{"40P01", "55P03", "40001"} {
		err := mapConflict(fmt.Errorf("update cards: %w", &pgconn.PgError{Code: code}))
		if !errors.Is(err, ErrStorageConflict) {
			t.Fatalf("code %s: expected ErrStorageConflict, got %v", code, err)
		}
	}
}

func TestMapConflict_PassesOtherErrorsThrough(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}},
		{name: "undefined column", err: &pgconn.PgError{Code: "42703"}},
		{name: "plain error", err: errors.New("connection reset")},
	} {
		got := mapConflict(tc.err)
		if !errors.Is(got, tc.err) {
			t.Fatalf("%s: error was rewritten to %v", tc.name, got)
		}
		if errors.Is(got, ErrStorageConflict) {
			t.Fatalf("%s: must not map to ErrStorageConflict", tc.name)
		}
	}

	if got := mapConflict(nil); got != nil {
		t.Fatalf("nil error mapped to %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("23505 not recognised as a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("wrapped 23505 not recognised")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("serialization failure wrongly treated as a unique violation")
	}
	if isUniqueViolation(errors.New("insert user: failed")) {
		t.Fatal("plain error wrongly treated as a unique violation")
	}
}
