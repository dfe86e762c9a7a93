package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionService validates, enriches and stores user transactions.
//
// A sell is only accepted when the user holds enough open quantity of the
// ticker at the sell date, and a delete is refused when it would leave a
// later sell uncovered. Writes of one user are serialized so the check and
// the write see the same history. Stored histories therefore never over-sell.
type TransactionService struct {
	store domain.TransactionStore
	calc  *Calculator
	locks *userLocks
	now   func() time.Time
	log   zerolog.Logger
}

// userLocks hands out one mutex per user id. Entries are never removed;
// the set of users is small.
type userLocks struct {
	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.users[userID]
	if !ok {
		m = &sync.Mutex{}
		l.users[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// NewTransactionService creates a new transaction service
func NewTransactionService(store domain.TransactionStore, calc *Calculator, log zerolog.Logger) *TransactionService {
	return &TransactionService{
		store: store,
		calc:  calc,
		locks: &userLocks{users: make(map[string]*sync.Mutex)},
		now:   time.Now,
		log:   log.With().Str("service", "transactions").Logger(),
	}
}

// Create builds a transaction from user input and stores it
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (domain.Transaction, error) {
	tx, err := BuildTransaction(in, s.calc.Ratios())
	if err != nil {
		return domain.Transaction{}, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if tx.IsSell() {
		existing, err := s.store.ListByUser(ctx, userID)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to load transactions: %w", err)
		}
		if err := ValidateSequence(append(existing, tx)); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Str("ticker", tx.Ticker).Msg("Rejected sell")
			return domain.Transaction{}, err
		}
	}

	now := s.now()
	tx.ID = uuid.NewString()
	tx.UserID = userID
	tx.CreatedAt = now.UTC().Truncate(time.Second)
	tx.HoldingDays = domain.DaysBetween(tx.Date, now)

	if err := s.store.Create(ctx, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to store transaction: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("ticker", tx.Ticker).
		Str("tipo", string(tx.Type)).
		Int64("cantidad", tx.Quantity).
		Msg("Transaction created")
	return tx, nil
}

// List returns a user's transactions with derived fields filled in
func (s *TransactionService) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return s.calc.Enhance(txs, s.now()), nil
}

// Delete removes a transaction
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	remaining := make([]domain.Transaction, 0, len(existing))
	found := false
	for _, tx := range existing {
		if tx.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, tx)
	}
	if !found {
		return ErrTransactionNotFound
	}
	if err := ValidateSequence(remaining); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("id", id).Msg("Transaction deleted")
	return nil
}

// PortfolioService recomputes a user's portfolio from stored transactions
// and the current price snapshot on every call.
type PortfolioService struct {
	txStore    domain.TransactionStore
	priceStore domain.PriceStore
	calc       *Calculator
	now        func() time.Time
	log        zerolog.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	txStore domain.TransactionStore,
	priceStore domain.PriceStore,
	calc *Calculator,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		txStore:    txStore,
		priceStore: priceStore,
		calc:       calc,
		now:        time.Now,
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

func (s *PortfolioService) load(ctx context.Context, userID string) ([]domain.Transaction, domain.PriceSnapshot, error) {
	txs, err := s.txStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	prices, err := s.priceStore.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prices: %w", err)
	}
	return txs, prices, nil
}

// GetSummary returns the portfolio summary of a user, or nil when the user
// has no transactions.
func (s *PortfolioService) GetSummary(ctx context.Context, userID string) (*PortfolioSummary, error) {
	txs, prices, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := s.calc.Summarize(txs, prices, s.now())
	s.log.Debug().
		Str("user_id", userID).
		Int("transactions", len(txs)).
		Int("prices", len(prices)).
		Dur("took", time.Since(start)).
		Msg("Portfolio summary computed")
	return summary, nil
}

// GetPositions returns the open positions of a user
func (s *PortfolioService) GetPositions(ctx context.Context, userID string) ([]Position, error) {
	txs, prices, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.calc.AggregatePositions(txs, prices, s.now()), nil
}

// GetClosedOperations returns the FIFO-matched closed operations of a user
func (s *PortfolioService) GetClosedOperations(ctx context.Context, userID string) ([]ClosedOperation, error) {
	txs, err := s.txStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return CalculateClosedOperations(txs), nil
}
