package di

import (
	"github.com/cartera-ar/cartera/internal/clients/dolarapi"
	"github.com/cartera-ar/cartera/internal/clients/yahoo"
	"github.com/cartera-ar/cartera/internal/database"
	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/history"
	"github.com/cartera-ar/cartera/internal/modules/optimization"
	optimizationhandlers "github.com/cartera-ar/cartera/internal/modules/optimization/handlers"
	"github.com/cartera-ar/cartera/internal/modules/portfolio"
	portfoliohandlers "github.com/cartera-ar/cartera/internal/modules/portfolio/handlers"
	priceshandlers "github.com/cartera-ar/cartera/internal/modules/prices/handlers"
	"github.com/cartera-ar/cartera/internal/reliability"
	"github.com/cartera-ar/cartera/internal/scheduler"
	"github.com/cartera-ar/cartera/internal/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	LedgerDB *database.DB
	CacheDB  *database.DB
	Postgres *pgxpool.Pool // nil unless DATABASE_URL is set

	// Stores
	TransactionStore domain.TransactionStore
	PriceStore       domain.PriceStore

	// Clients
	YahooClient    *yahoo.Client
	DolarAPIClient *dolarapi.Client

	// Services
	Calculator         *portfolio.Calculator
	TransactionService *portfolio.TransactionService
	PortfolioService   *portfolio.PortfolioService
	HistoryProvider    *history.CachedProvider
	OptimizerService   *optimization.Service
	BackupService      *reliability.BackupService // nil when backups are disabled

	// Runtime
	Scheduler      *scheduler.Scheduler
	SystemHandlers *server.SystemHandlers
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	PriceRefresh     scheduler.Job
	CheckWAL         scheduler.Job
	DailyMaintenance scheduler.Job
	Backup           scheduler.Job // nil when backups are disabled
}

// Routes returns the HTTP modules mounted under /api
func (c *Container) Routes(log zerolog.Logger) []server.RouteRegistrar {
	return []server.RouteRegistrar{
		portfoliohandlers.NewHandler(c.TransactionService, c.PortfolioService, log),
		priceshandlers.NewHandler(c.PriceStore, log),
		optimizationhandlers.NewHandler(c.OptimizerService, log),
	}
}

// Databases returns the open SQLite databases
func (c *Container) Databases() []*database.DB {
	out := make([]*database.DB, 0, 2)
	for _, db := range []*database.DB{c.LedgerDB, c.CacheDB} {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}

// Close releases every database connection
func (c *Container) Close() {
	for _, db := range c.Databases() {
		_ = db.Close()
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}
