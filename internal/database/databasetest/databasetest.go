// Package databasetest opens migrated in-memory SQLite databases for tests.
package databasetest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// Open returns a fresh migrated database that is closed when t ends.
func Open(t testing.TB) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	sqlDB, err := sql.Open(dialect.SQLite, dsn)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serialises transactions.
	sqlDB.SetMaxOpenConns(1)

	db := database.New(dialect.SQLite, sqlDB)
	if err := db.Migrate(context.Background()); err != nil {
		_ = db.Close()
		t.Fatalf("migrating sqlite: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
