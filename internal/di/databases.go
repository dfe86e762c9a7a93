// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cartera-ar/cartera/internal/config"
	"github.com/cartera-ar/cartera/internal/database"
	"github.com/cartera-ar/cartera/internal/storage/postgres"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the SQLite databases, applies their schemas and
// connects to Postgres when configured
func InitializeDatabases(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// ledger.db - transactions and current prices
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// cache.db - historical series cache, safe to delete
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Postgres = pool

		if err := postgres.Migrate(ctx, pool); err != nil {
			container.Close()
			return nil, err
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Bool("postgres", container.Postgres != nil).
		Msg("Databases initialized")
	return container, nil
}
