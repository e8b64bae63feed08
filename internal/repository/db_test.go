package repository

import (
	"errors"
	"strings"
	"testing"

	apperror "mpp-chat-portal/internal/error"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNotFound(t *testing.T) {
	other := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, apperror.ErrNotFound},
		{"other error", other, other},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notFound(tt.err); !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("notFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAffected(t *testing.T) {
	if err := affected(pgconn.NewCommandTag("DELETE 0")); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for zero rows, got %v", err)
	}
	if err := affected(pgconn.NewCommandTag("DELETE 1")); err != nil {
		t.Errorf("Expected nil for one row, got %v", err)
	}
}

func TestNullable(t *testing.T) {
	if nullable("") != nil {
		t.Error("Expected empty string to be stored as NULL")
	}
	if v := nullable("Rp30.000"); v == nil || *v != "Rp30.000" {
		t.Errorf("Expected pointer to value, got %v", v)
	}
	if deref(nil) != "" || deref(nullable("x")) != "x" {
		t.Error("deref did not invert nullable")
	}
}

func TestUniqueUsername(t *testing.T) {
	dup := &pgconn.PgError{Code: uniqueViolation}
	if err := uniqueUsername(dup); !errors.Is(err, apperror.ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken, got %v", err)
	}
	if err := uniqueUsername(nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"agencies", "services", "mpp_profile", "users", "chat_logs"} {
		if !containsTable(schema, table) {
			t.Errorf("Expected schema to create %s", table)
		}
	}
}

func containsTable(sql, table string) bool {
	return strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table+" (")
}
