package portfolio

import (
	"testing"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateClosedOperations_SingleMatch(t *testing.T) {
	b := buy("AAPL", "2024-01-01", 100, 10, 1000)
	s := sell("AAPL", "2024-02-01", 150, 4, 1000)

	ops := CalculateClosedOperations([]domain.Transaction{b, s})
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, int64(4), op.Quantity)
	assert.True(t, op.GainARS.Equal(dec("200")), "gain %s", op.GainARS)
	assert.True(t, op.GainUSD.Equal(dec("0.2")), "gain usd %s", op.GainUSD)
	assert.Equal(t, 31, op.HoldingDays)
	assert.Equal(t, b.ID, op.BuyTransactionID)
	assert.Equal(t, s.ID, op.SellTransactionID)
}

func TestCalculateClosedOperations_FIFOOrder(t *testing.T) {
	b1 := buy("AAPL", "2024-01-01", 100, 10, 1000)
	b2 := buy("AAPL", "2024-01-02", 110, 10, 1000)
	s := sell("AAPL", "2024-01-03", 120, 15, 1000)

	ops := CalculateClosedOperations([]domain.Transaction{b1, b2, s})
	require.Len(t, ops, 2)

	assert.Equal(t, b1.ID, ops[0].BuyTransactionID)
	assert.Equal(t, int64(10), ops[0].Quantity)
	assert.True(t, ops[0].GainARS.Equal(dec("200")))

	assert.Equal(t, b2.ID, ops[1].BuyTransactionID)
	assert.Equal(t, int64(5), ops[1].Quantity)
	assert.True(t, ops[1].GainARS.Equal(dec("50")))
}

func TestCalculateClosedOperations_LotSpansSells(t *testing.T) {
	txs := []domain.Transaction{
		buy("KO", "2024-01-01", 50, 10, 1000),
		sell("KO", "2024-02-01", 60, 3, 1000),
		sell("KO", "2024-03-01", 40, 3, 1000),
	}

	ops := CalculateClosedOperations(txs)
	require.Len(t, ops, 2)
	assert.True(t, ops[0].GainARS.Equal(dec("30")))
	assert.True(t, ops[1].GainARS.Equal(dec("-30")))
	assert.Equal(t, 60, ops[1].HoldingDays)
}

func TestCalculateClosedOperations_OverSellStopsMatching(t *testing.T) {
	txs := []domain.Transaction{
		buy("AAPL", "2024-01-01", 100, 5, 1000),
		sell("AAPL", "2024-02-01", 150, 8, 1000),
	}

	ops := CalculateClosedOperations(txs)
	require.Len(t, ops, 1)
	assert.Equal(t, int64(5), ops[0].Quantity)
}

func TestCalculateClosedOperations_PerTicker(t *testing.T) {
	txs := []domain.Transaction{
		buy("AAPL", "2024-01-01", 100, 5, 1000),
		buy("KO", "2024-01-01", 50, 5, 1000),
		sell("KO", "2024-02-01", 70, 5, 1000),
		sell("AAPL", "2024-03-01", 90, 5, 1000),
	}

	ops := CalculateClosedOperations(txs)
	require.Len(t, ops, 2)
	assert.Equal(t, "KO", ops[0].Ticker)
	assert.Equal(t, "AAPL", ops[1].Ticker)

	ars, usd := RealizedGains(ops)
	assert.True(t, ars.Equal(dec("50")), "realized %s", ars)
	assert.True(t, usd.Equal(dec("0.05")), "realized usd %s", usd)
}

func TestCalculateClosedOperations_NoSells(t *testing.T) {
	ops := CalculateClosedOperations([]domain.Transaction{buy("AAPL", "2024-01-01", 100, 5, 1000)})
	assert.Empty(t, ops)

	ars, usd := RealizedGains(ops)
	assert.True(t, ars.IsZero())
	assert.True(t, usd.IsZero())
}
