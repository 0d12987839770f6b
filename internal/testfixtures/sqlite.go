package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/meeting-matcher/internal/store/sqlite"
)

// NewSQLiteStore opens a migrated temporary SQLite store for integration
// style tests. The store is closed automatically when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "matcher.db")

	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		if cerr := storage.Close(); cerr != nil {
			tb.Errorf("failed to close storage: %v", cerr)
		}
	})

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return storage
}
