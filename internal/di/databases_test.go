package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartera-ar/cartera/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.CacheDB)
	assert.Nil(t, container.Postgres)
	assert.Len(t, container.Databases(), 2)

	for _, name := range []string{"ledger.db", "cache.db"} {
		_, err := os.Stat(filepath.Join(tmpDir, name))
		assert.NoError(t, err, name)
	}

	// Schema is applied
	var count int
	err = container.LedgerDB.Conn().QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInitializeDatabases_InvalidPostgresURL(t *testing.T) {
	cfg := &config.Config{
		DataDir:     t.TempDir(),
		DatabaseURL: "not a url ::",
	}

	container, err := InitializeDatabases(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, container)
}
