package portfolio

import (
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/cedears"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceTransaction(t *testing.T) {
	table := cedears.NewTable(map[string]float64{"AAPL": 20})

	t.Run("known ticker", func(t *testing.T) {
		tx := buy("AAPL", "2024-01-01", 1000, 10, 1000)
		out, err := EnhanceTransaction(tx, table)
		require.NoError(t, err)

		assert.True(t, out.USDPerCedear.Equal(dec("1")))
		assert.Equal(t, 200.0, out.UnderlyingShares)
		assert.True(t, out.SharePriceUSD.Equal(dec("20")))
	})

	t.Run("unknown ticker degrades to zero", func(t *testing.T) {
		tx := buy("ZZZZ", "2024-01-01", 1000, 10, 1000)
		out, err := EnhanceTransaction(tx, table)
		require.NoError(t, err)

		assert.True(t, out.USDPerCedear.Equal(dec("1")))
		assert.Zero(t, out.UnderlyingShares)
		assert.True(t, out.SharePriceUSD.IsZero())
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		tx := buy("AAPL", "2024-01-01", 1000, 10, 1000)
		tx.Quantity = 0
		_, err := EnhanceTransaction(tx, table)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("input is not modified", func(t *testing.T) {
		tx := buy("AAPL", "2024-01-01", 1000, 10, 1000)
		_, err := EnhanceTransaction(tx, table)
		require.NoError(t, err)
		assert.True(t, tx.USDPerCedear.IsZero())
	})
}

func TestBuildTransaction(t *testing.T) {
	table := cedears.NewTable(map[string]float64{"MSFT": 30})

	tx, err := BuildTransaction(TransactionInput{
		Date:     day("2024-03-15"),
		Type:     domain.TransactionTypeBuy,
		Ticker:   " msft ",
		PriceARS: dec("15000"),
		Quantity: 4,
		USDRate:  dec("1200"),
		Category: "tech",
	}, table)
	require.NoError(t, err)

	assert.Equal(t, "MSFT", tx.Ticker)
	assert.True(t, tx.TotalARS.Equal(dec("60000")))
	assert.True(t, tx.TotalUSD.Equal(dec("50")))
	assert.True(t, tx.USDPerCedear.Equal(dec("12.5")))
	assert.Equal(t, 120.0, tx.UnderlyingShares)
	assert.True(t, tx.SharePriceUSD.Equal(dec("375")))
}

func TestBuildTransaction_KeepsCalendarDay(t *testing.T) {
	buenosAires := time.FixedZone("ART", -3*60*60)

	tx, err := BuildTransaction(TransactionInput{
		Date:     time.Date(2024, 3, 15, 22, 30, 0, 0, buenosAires),
		Type:     domain.TransactionTypeBuy,
		Ticker:   "AAPL",
		PriceARS: dec("100"),
		Quantity: 1,
		USDRate:  dec("1000"),
	}, cedears.Default())
	require.NoError(t, err)

	assert.Equal(t, day("2024-03-15"), tx.Date)
}

func TestBuildTransaction_Validation(t *testing.T) {
	valid := TransactionInput{
		Date:     day("2024-03-15"),
		Type:     domain.TransactionTypeBuy,
		Ticker:   "AAPL",
		PriceARS: dec("100"),
		Quantity: 1,
		USDRate:  dec("1000"),
	}

	tests := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"zero quantity", func(in *TransactionInput) { in.Quantity = 0 }, ErrInvalidQuantity},
		{"negative quantity", func(in *TransactionInput) { in.Quantity = -3 }, ErrInvalidQuantity},
		{"zero price", func(in *TransactionInput) { in.PriceARS = dec("0") }, ErrInvalidPrice},
		{"zero rate", func(in *TransactionInput) { in.USDRate = dec("0") }, ErrInvalidRate},
		{"bad type", func(in *TransactionInput) { in.Type = "swap" }, ErrInvalidType},
		{"empty ticker", func(in *TransactionInput) { in.Ticker = "  " }, ErrMissingTicker},
		{"missing date", func(in *TransactionInput) { in.Date = day("0001-01-01") }, ErrMissingDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := BuildTransaction(in, cedears.Default())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEnhanceAll_HoldingDays(t *testing.T) {
	txs := []domain.Transaction{
		buy("AAPL", "2024-01-01", 100, 10, 1000),
		buy("KO", "2024-01-31", 100, 10, 1000),
	}
	out := EnhanceAll(txs, cedears.Default(), day("2024-03-01"))
	require.Len(t, out, 2)
	assert.Equal(t, 60, out[0].HoldingDays)
	assert.Equal(t, 30, out[1].HoldingDays)
}
