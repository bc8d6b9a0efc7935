package testutil

import (
	"testing"

	"drawer-go/internal/database"
)

// NewTestDatabase returns an empty drawer store in private in-memory SQLite,
// built from the generated schema rather than the migrations. It is closed
// by t.Cleanup.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	if _, err := conn.Exec(database.Schema); err != nil {
		conn.Close()
		t.Fatalf("creating tables: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(conn)
	t.Cleanup(func() { db.Close() })
	return db
}
