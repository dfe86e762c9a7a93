package portfolio

import (
	"testing"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/cedears"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, CalculateSummary(nil, nil, day("2024-03-01"), DefaultUSDRate))
}

func TestSummarize_Scenario(t *testing.T) {
	txs := []domain.Transaction{
		buy("AAPL", "2024-01-01", 100, 10, 1000),
		sell("AAPL", "2024-02-01", 150, 4, 1000),
	}
	prices := domain.PriceSnapshot{price("AAPL", 120, 1200)}

	s := CalculateSummary(txs, prices, day("2024-03-01"), DefaultUSDRate)
	require.NotNil(t, s)

	require.Len(t, s.Positions, 1)
	require.Len(t, s.ClosedOperations, 1)
	assert.True(t, s.TotalRealizedGainARS.Equal(dec("200")))
	assert.True(t, s.TotalValueARS.Equal(dec("720")))
	assert.True(t, s.TotalValueUSD.Equal(dec("0.6")))
	assert.True(t, s.TotalCostARS.Equal(dec("400")))
	assert.True(t, s.TotalUnrealizedGainARS.Equal(dec("320")))
	assert.True(t, s.TotalGainARS.Equal(dec("520")))
	assert.True(t, s.USDRateActual.Equal(dec("1200")))
}

func TestSummarize_USDRateFallback(t *testing.T) {
	txs := []domain.Transaction{buy("AAPL", "2024-01-01", 100, 10, 1000)}

	s := NewCalculator(cedears.Default(), decimal.NewFromInt(1450)).Summarize(txs, nil, day("2024-03-01"))
	require.NotNil(t, s)
	assert.True(t, s.USDRateActual.Equal(dec("1450")))

	s = NewCalculator(nil, decimal.Zero).Summarize(txs, nil, day("2024-03-01"))
	assert.True(t, s.USDRateActual.Equal(DefaultUSDRate))
}

func TestSummarize_FirstSnapshotEntrySetsRate(t *testing.T) {
	txs := []domain.Transaction{buy("AAPL", "2024-01-01", 100, 10, 1000)}
	prices := domain.PriceSnapshot{price("KO", 60, 1300), price("AAPL", 110, 1250)}

	s := CalculateSummary(txs, prices, day("2024-03-01"), DefaultUSDRate)
	require.NotNil(t, s)
	assert.True(t, s.USDRateActual.Equal(dec("1300")))
}

func TestSummarize_Idempotent(t *testing.T) {
	txs := []domain.Transaction{
		buy("AAPL", "2024-01-01", 100, 10, 1000),
		sell("AAPL", "2024-02-01", 150, 4, 1000),
		buy("MSFT", "2024-01-20", 300, 3, 1050),
	}
	prices := domain.PriceSnapshot{price("AAPL", 120, 1200), price("MSFT", 330, 1200)}
	calc := NewCalculator(nil, DefaultUSDRate)

	first := calc.Summarize(txs, prices, day("2024-03-01"))
	second := calc.Summarize(txs, prices, day("2024-03-01"))
	assert.Equal(t, first, second)
}
