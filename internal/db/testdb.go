package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an empty, fully migrated in-memory database that is
// closed when the test ends. Each call yields an independent database.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := Migrate(database); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return database
}
