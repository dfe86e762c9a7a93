// Package testing provides testing utilities and helpers for the cartera project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/cartera-ar/cartera/internal/database"
	"github.com/rs/zerolog"
)

// NewTestDB creates a temporary file-backed SQLite database with its schema
// applied. The database is closed when the test finishes.
//
// Supported schema names:
//   - "ledger" - transactions and current prices
//   - "cache" - historical series cache
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	switch name {
	case "ledger":
		profile = database.ProfileLedger
	case "cache":
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
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
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})
	return db
}

// NewTestLogger returns a logger that discards output unless -v is set.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	}
	return zerolog.Nop()
}
