package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by write operations whose target row does not exist.
	// Lookups return a nil result instead.
	ErrNotFound = errors.New("not found")

	// ErrStatusChanged is returned when a conditional status update finds the
	// announcement in a status other than the expected prior one.
	ErrStatusChanged = errors.New("announcement status changed")

	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate value")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err came from a UNIQUE constraint,
// optionally on the given table.column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
