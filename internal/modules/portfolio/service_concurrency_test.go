package portfolio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	testhelpers "github.com/cartera-ar/cartera/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowListStore widens the gap between reading the history and writing to it.
type slowListStore struct {
	domain.TransactionStore
	delay time.Duration
}

func (s *slowListStore) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	time.Sleep(s.delay)
	return s.TransactionStore.ListByUser(ctx, userID)
}

func newConcurrentTxService(t *testing.T) (*TransactionService, domain.TransactionStore) {
	t.Helper()
	db := testhelpers.NewTestDB(t, "ledger")
	repo := NewTransactionRepository(db.Conn(), zerolog.Nop())
	return newTxService(&slowListStore{TransactionStore: repo, delay: 20 * time.Millisecond}), repo
}

func TestTransactionService_ConcurrentSellsNeverOverSell(t *testing.T) {
	svc, repo := newConcurrentTxService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", TransactionInput{
		Date: day("2024-01-01"), Type: domain.TransactionTypeBuy, Ticker: "AAPL",
		PriceARS: dec("100"), Quantity: 10, USDRate: dec("1000"),
	})
	require.NoError(t, err)

	const sellers = 8
	errs := make([]error, sellers)
	var wg sync.WaitGroup
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, "u1", TransactionInput{
				Date: day("2024-02-01"), Type: domain.TransactionTypeSell, Ticker: "AAPL",
				PriceARS: dec("120"), Quantity: 10, USDRate: dec("1000"),
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrOverSell)
	}
	assert.Equal(t, 1, accepted)

	stored, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.NoError(t, ValidateSequence(stored))
}

func TestTransactionService_ConcurrentDeletesKeepSellsCovered(t *testing.T) {
	svc, repo := newConcurrentTxService(t)
	ctx := context.Background()

	var buyIDs []string
	for _, date := range []string{"2024-01-01", "2024-01-02"} {
		tx, err := svc.Create(ctx, "u1", TransactionInput{
			Date: day(date), Type: domain.TransactionTypeBuy, Ticker: "KO",
			PriceARS: dec("50"), Quantity: 5, USDRate: dec("1000"),
		})
		require.NoError(t, err)
		buyIDs = append(buyIDs, tx.ID)
	}
	_, err := svc.Create(ctx, "u1", TransactionInput{
		Date: day("2024-02-01"), Type: domain.TransactionTypeSell, Ticker: "KO",
		PriceARS: dec("60"), Quantity: 5, USDRate: dec("1000"),
	})
	require.NoError(t, err)

	// Either buy alone may go, not both.
	errs := make([]error, len(buyIDs))
	var wg sync.WaitGroup
	for i, id := range buyIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = svc.Delete(ctx, "u1", id)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.ErrorIs(t, err, ErrOverSell)
		}
	}
	assert.Equal(t, 1, failed)

	stored, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.NoError(t, ValidateSequence(stored))
}
