// Package prices stores the latest quote of each ticker.
package prices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository persists current prices in the ledger database.
// One row per ticker; the last write wins.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "prices").Logger(),
	}
}

var _ domain.PriceStore = (*Repository)(nil)

// Upsert stores the price of a ticker, replacing any previous value
func (r *Repository) Upsert(ctx context.Context, p domain.CurrentPrice) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.ledgerDB.ExecContext(ctx, `
		INSERT INTO current_prices (ticker, precio_ars, usd_rate, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			precio_ars = excluded.precio_ars,
			usd_rate = excluded.usd_rate,
			updated_at = excluded.updated_at`,
		domain.NormalizeTicker(p.Ticker), p.PriceARS.String(), p.USDRate.String(), updatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price for %s: %w", p.Ticker, err)
	}
	return nil
}

// Get returns the price of one ticker
func (r *Repository) Get(ctx context.Context, ticker string) (domain.CurrentPrice, error) {
	row := r.ledgerDB.QueryRowContext(ctx, `
		SELECT ticker, precio_ars, usd_rate, updated_at
		FROM current_prices WHERE ticker = ?`, domain.NormalizeTicker(ticker))

	p, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CurrentPrice{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("failed to get price for %s: %w", ticker, err)
	}
	return p, nil
}

// List returns all prices ordered by ticker
func (r *Repository) List(ctx context.Context) (domain.PriceSnapshot, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT ticker, precio_ars, usd_rate, updated_at
		FROM current_prices ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	snapshot := domain.PriceSnapshot{}
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		snapshot = append(snapshot, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	return snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(s rowScanner) (domain.CurrentPrice, error) {
	var (
		p           domain.CurrentPrice
		price, rate string
		updatedAt   int64
	)
	if err := s.Scan(&p.Ticker, &price, &rate, &updatedAt); err != nil {
		return domain.CurrentPrice{}, err
	}

	var err error
	if p.PriceARS, err = decimal.NewFromString(price); err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("invalid precio_ars %q: %w", price, err)
	}
	if p.USDRate, err = decimal.NewFromString(rate); err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("invalid usd_rate %q: %w", rate, err)
	}
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}
