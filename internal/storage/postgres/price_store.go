package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PriceStore keeps current prices in Postgres.
type PriceStore struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewPriceStore creates a new Postgres price store
func NewPriceStore(db *pgxpool.Pool, log zerolog.Logger) *PriceStore {
	return &PriceStore{
		db:  db,
		log: log.With().Str("repo", "pg_price").Logger(),
	}
}

var _ domain.PriceStore = (*PriceStore)(nil)

// Upsert stores the price of a ticker. The last write wins.
func (s *PriceStore) Upsert(ctx context.Context, p domain.CurrentPrice) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO current_prices (ticker, precio_ars, usd_rate, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			precio_ars = EXCLUDED.precio_ars,
			usd_rate   = EXCLUDED.usd_rate,
			updated_at = EXCLUDED.updated_at`,
		domain.NormalizeTicker(p.Ticker), p.PriceARS.String(), p.USDRate.String(), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price for %s: %w", p.Ticker, err)
	}
	return nil
}

// Get returns the price of one ticker
func (s *PriceStore) Get(ctx context.Context, ticker string) (domain.CurrentPrice, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		SELECT ticker, precio_ars::text, usd_rate::text, updated_at
		FROM current_prices WHERE ticker = $1`, domain.NormalizeTicker(ticker))
	p, err := scanPrice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CurrentPrice{}, domain.ErrNotFound
	}
	return p, err
}

// List returns every price ordered by ticker
func (s *PriceStore) List(ctx context.Context) (domain.PriceSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT ticker, precio_ars::text, usd_rate::text, updated_at
		FROM current_prices ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	out := make(domain.PriceSnapshot, 0)
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrice(row pgx.Row) (domain.CurrentPrice, error) {
	var (
		p           domain.CurrentPrice
		price, rate string
	)
	if err := row.Scan(&p.Ticker, &price, &rate, &p.UpdatedAt); err != nil {
		return domain.CurrentPrice{}, err
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	if err := parseDecimals(decimalField{price, &p.PriceARS}, decimalField{rate, &p.USDRate}); err != nil {
		return domain.CurrentPrice{}, err
	}
	return p, nil
}
