// Package testing provides testing utilities and helpers for the factorlens project.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/factorlens/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a temporary directory
// with the named schema applied. Supported names are database.NameCache and
// database.NameRuns; unknown names give an empty database.
// The database is closed automatically when the test ends.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	// Temporary files keep tests isolated from each other
	path := filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name))

	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			// Log error but don't fail test - cleanup should be idempotent
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	return db
}

// WriteTempFile writes content to a file in a fresh temporary directory and
// returns its path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
