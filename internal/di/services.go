package di

import (
	"context"
	"fmt"

	"github.com/cartera-ar/cartera/internal/clients/dolarapi"
	"github.com/cartera-ar/cartera/internal/clients/yahoo"
	"github.com/cartera-ar/cartera/internal/config"
	"github.com/cartera-ar/cartera/internal/modules/cedears"
	"github.com/cartera-ar/cartera/internal/modules/history"
	"github.com/cartera-ar/cartera/internal/modules/optimization"
	"github.com/cartera-ar/cartera/internal/modules/portfolio"
	"github.com/cartera-ar/cartera/internal/reliability"
	"github.com/cartera-ar/cartera/internal/scheduler"
	"github.com/cartera-ar/cartera/internal/server"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InitializeServices builds clients and services on top of the stores
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.YahooClient = yahoo.NewClient(cfg.PriceRefresh.YahooRateLimit, log)
	container.DolarAPIClient = dolarapi.NewClient(cfg.PriceRefresh.DolarAPIURL, log)

	container.Calculator = portfolio.NewCalculator(cedears.Default(), decimal.NewFromFloat(cfg.DefaultUSDRate))
	container.TransactionService = portfolio.NewTransactionService(container.TransactionStore, container.Calculator, log)
	container.PortfolioService = portfolio.NewPortfolioService(container.TransactionStore, container.PriceStore, container.Calculator, log)

	container.HistoryProvider = history.NewCachedProvider(container.YahooClient, container.CacheDB.Conn(), cfg.Optimizer.HistoryCacheTTL, log)
	container.OptimizerService = optimization.NewService(container.HistoryProvider, optimization.Config{
		Simulations:    cfg.Optimizer.Simulations,
		MaxSimulations: cfg.Optimizer.MaxSimulations,
		MinTradingDays: cfg.Optimizer.MinTradingDays,
		FetchTimeout:   cfg.Optimizer.FetchTimeout,
		FetchRetries:   cfg.Optimizer.FetchRetries,
	}, log)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, container.Databases(), cfg.DataDir, cfg.Backup.Prefix, log)
	}

	container.Scheduler = scheduler.New(log)

	var pg server.Pinger
	if container.Postgres != nil {
		pg = container.Postgres
	}
	container.SystemHandlers = server.NewSystemHandlers(container.Databases(), pg, container.Scheduler, log)
	return nil
}
