// Package storagetest provides throwaway migrated databases for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/stretchr/testify/require"
)

// NewSQLite migrates a fresh SQLite database in t.TempDir and returns it
// open. The database is closed when the test ends.
func NewSQLite(t testing.TB) *storage.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "basicfit.db")
	require.NoError(t, storage.RunMigrations(storage.SQLite, path))

	db, err := storage.Open(context.Background(), storage.Options{Dialect: storage.SQLite, DSN: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
