// Package testutil provides shared test helpers: isolated databases with
// migrations applied and automatic cleanup.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"tunebridge/internal/service"
	"tunebridge/internal/storage"
)

// TestDB is a migrated, self-cleaning database for tests.
type TestDB struct {
	Storage service.Storage
	Path    string
}

// SetupTestDB creates a fresh on-disk SQLite database under the test's temp
// directory, runs migrations, and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, Path: path}
}
