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
	"github.com/shopspring/decimal"
)

const selectTransactionSQL = `
	SELECT id, user_id, fecha, tipo, ticker, precio_ars::text, cantidad,
		usd_rate_historico::text, total_ars::text, total_usd::text, categoria, created_at
	FROM transactions`

// TransactionStore keeps transactions in Postgres.
type TransactionStore struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewTransactionStore creates a new Postgres transaction store
func NewTransactionStore(db *pgxpool.Pool, log zerolog.Logger) *TransactionStore {
	return &TransactionStore{
		db:  db,
		log: log.With().Str("repo", "pg_transaction").Logger(),
	}
}

var _ domain.TransactionStore = (*TransactionStore)(nil)

// Create inserts a transaction
func (s *TransactionStore) Create(ctx context.Context, tx domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions (
			id, user_id, fecha, tipo, ticker,
			precio_ars, cantidad, usd_rate_historico,
			total_ars, total_usd, categoria, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6::numeric,$7,$8::numeric,$9::numeric,$10::numeric,$11,$12)`,
		tx.ID, tx.UserID, tx.Date, string(tx.Type), tx.Ticker,
		tx.PriceARS.String(), tx.Quantity, tx.USDRate.String(),
		tx.TotalARS.String(), tx.TotalUSD.String(), tx.Category, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListByUser returns a user's transactions in insertion order
func (s *TransactionStore) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, selectTransactionSQL+` WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

// GetByID returns one transaction of a user
func (s *TransactionStore) GetByID(ctx context.Context, userID, id string) (domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	row := s.db.QueryRow(ctx, selectTransactionSQL+` WHERE user_id = $1 AND id = $2`, userID, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, err
}

// Delete removes a transaction of a user
func (s *TransactionStore) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	s.log.Debug().Str("id", id).Msg("Transaction deleted")
	return nil
}

// ListTickers returns every ticker present in any user's transactions
func (s *TransactionStore) ListTickers(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT DISTINCT ticker FROM transactions ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tickers: %w", err)
	}
	return tickers, nil
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		tx                              domain.Transaction
		tipo                            string
		price, rate, totalARS, totalUSD string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Date, &tipo, &tx.Ticker, &price, &tx.Quantity,
		&rate, &totalARS, &totalUSD, &tx.Category, &tx.CreatedAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Type = domain.TransactionType(tipo)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()

	if err := parseDecimals(
		decimalField{price, &tx.PriceARS},
		decimalField{rate, &tx.USDRate},
		decimalField{totalARS, &tx.TotalARS},
		decimalField{totalUSD, &tx.TotalUSD},
	); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

type decimalField struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("invalid numeric %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
