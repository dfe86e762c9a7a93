package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MigrateLedger(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "ledger.db"), Profile: ProfileLedger, Name: "ledger"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// Schemas are idempotent.
	require.NoError(t, db.Migrate())

	var count int
	err = db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('transactions', 'current_prices')`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "other.db"), Name: "other"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO history_cache (symbol, range_key, payload, fetched_at) VALUES ('AAPL', 'k', x'00', 1)`); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM history_cache`).Scan(&count))
	assert.Zero(t, count)
}

func TestSnapshotAndStats(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "ledger.db"), Profile: ProfileLedger, Name: "ledger"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	require.NoError(t, db.HealthCheck(ctx))

	dest := filepath.Join(dir, "snapshot.db")
	require.NoError(t, db.Snapshot(ctx, dest))
	assert.FileExists(t, dest)

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ledger", stats.Name)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)
}
