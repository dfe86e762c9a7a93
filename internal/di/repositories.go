package di

import (
	"github.com/cartera-ar/cartera/internal/modules/portfolio"
	"github.com/cartera-ar/cartera/internal/modules/prices"
	"github.com/cartera-ar/cartera/internal/storage/postgres"
	"github.com/rs/zerolog"
)

// InitializeRepositories selects the transaction and price stores. Postgres
// takes over the ledger when a pool is configured.
func InitializeRepositories(container *Container, log zerolog.Logger) {
	if container.Postgres != nil {
		container.TransactionStore = postgres.NewTransactionStore(container.Postgres, log)
		container.PriceStore = postgres.NewPriceStore(container.Postgres, log)
		return
	}

	container.TransactionStore = portfolio.NewTransactionRepository(container.LedgerDB.Conn(), log)
	container.PriceStore = prices.NewRepository(container.LedgerDB.Conn(), log)
}
