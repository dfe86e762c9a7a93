package portfolio

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

const dateLayout = "2006-01-02"

// TransactionRepository stores transactions in the SQLite ledger database.
// Derived fields are not stored; they are recomputed on read.
type TransactionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transaction").Logger(),
	}
}

var _ domain.TransactionStore = (*TransactionRepository)(nil)

// Create inserts a transaction
func (r *TransactionRepository) Create(ctx context.Context, tx domain.Transaction) error {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.ledgerDB.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, fecha, tipo, ticker, precio_ars, cantidad,
			usd_rate_historico, total_ars, total_usd, categoria, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Date.Format(dateLayout), string(tx.Type), tx.Ticker,
		tx.PriceARS.String(), tx.Quantity, tx.USDRate.String(),
		tx.TotalARS.String(), tx.TotalUSD.String(), tx.Category, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	r.log.Debug().
		Str("id", tx.ID).
		Str("ticker", tx.Ticker).
		Str("tipo", string(tx.Type)).
		Int64("cantidad", tx.Quantity).
		Msg("Transaction stored")
	return nil
}

// ListByUser returns a user's transactions in insertion order
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT id, user_id, fecha, tipo, ticker, precio_ars, cantidad,
			usd_rate_historico, total_ars, total_usd, categoria, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

// GetByID returns one transaction of a user
func (r *TransactionRepository) GetByID(ctx context.Context, userID, id string) (domain.Transaction, error) {
	row := r.ledgerDB.QueryRowContext(ctx, `
		SELECT id, user_id, fecha, tipo, ticker, precio_ars, cantidad,
			usd_rate_historico, total_ars, total_usd, categoria, created_at
		FROM transactions
		WHERE user_id = ? AND id = ?`, userID, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return tx, nil
}

// Delete removes a transaction of a user
func (r *TransactionRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.ledgerDB.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListTickers returns every ticker present in any user's transactions
func (r *TransactionRepository) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `SELECT DISTINCT ticker FROM transactions ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (domain.Transaction, error) {
	var (
		tx                              domain.Transaction
		fecha, tipo                     string
		price, rate, totalARS, totalUSD string
		createdAt                       int64
	)
	err := s.Scan(&tx.ID, &tx.UserID, &fecha, &tipo, &tx.Ticker, &price, &tx.Quantity,
		&rate, &totalARS, &totalUSD, &tx.Category, &createdAt)
	if err != nil {
		return domain.Transaction{}, err
	}

	if tx.Date, err = time.Parse(dateLayout, fecha); err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid fecha %q: %w", fecha, err)
	}
	tx.Type = domain.TransactionType(tipo)
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()

	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{price, &tx.PriceARS},
		{rate, &tx.USDRate},
		{totalARS, &tx.TotalARS},
		{totalUSD, &tx.TotalUSD},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return domain.Transaction{}, fmt.Errorf("invalid decimal %q: %w", f.raw, err)
		}
	}
	return tx, nil
}
