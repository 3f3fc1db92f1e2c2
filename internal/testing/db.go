// Package testing provides shared test helpers for the commodities project.
package testing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/commodities/internal/database"
)

// NewTestDB opens a migrated scratch database under t.TempDir().
// The connection is closed by t.Cleanup.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "test.db"),
		Profile: database.ProfileScratch,
		Name:    "test",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
