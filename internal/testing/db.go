// Package testing provides test utilities and fixtures shared across the
// helmsman packages.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/aristath/helmsman/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a throwaway SQLite database for a test. The cleanup
// function is idempotent and removes the backing file.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		_ = db.Close()
		_ = os.Remove(tmpPath)
	}
	return db, cleanup
}
