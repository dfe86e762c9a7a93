package cedears

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLookup_KnownAndUnknown(t *testing.T) {
	r := Lookup("AAPL")
	assert.True(t, r.Known)
	assert.True(t, decimal.NewFromInt(20).Equal(r.Value))

	u := Lookup("NOPE")
	assert.False(t, u.Known)
	assert.True(t, u.OrZero().IsZero())
}

func TestLookup_NormalizesTicker(t *testing.T) {
	assert.True(t, Lookup(" aapl ").Known)
}

func TestUnderlyingShares(t *testing.T) {
	table := NewTable(map[string]float64{"XYZ": 0.5, "ABC": 3})

	tests := []struct {
		name     string
		ticker   string
		quantity int64
		expected float64
	}{
		{"fractional factor", "XYZ", 10, 5},
		{"integer factor", "ABC", 7, 21},
		{"zero quantity", "ABC", 0, 0},
		{"unknown ticker", "ZZZ", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, table.UnderlyingShares(tt.ticker, tt.quantity), 1e-12)
		})
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.False(t, table.Lookup("AAPL").Known)
	assert.Equal(t, 0.0, table.UnderlyingShares("AAPL", 10))
}

func TestDefaultTable(t *testing.T) {
	assert.Greater(t, Default().Len(), 10)
	assert.InDelta(t, 200.0, UnderlyingShares("AAPL", 10), 1e-12)
}
