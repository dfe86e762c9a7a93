// Package cedears converts CEDEAR holdings into their underlying foreign shares.
//
// Conversion factors come from a static per-ticker table. A ticker missing from
// the table is an explicit Unknown ratio and converts to zero shares and a zero
// derived price rather than failing.
package cedears

import (
	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/shopspring/decimal"
)

// Ratio is the result of a table lookup: either a known conversion factor or Unknown.
type Ratio struct {
	Value decimal.Decimal
	Known bool
}

// Unknown is the ratio of a ticker that is not in the table.
var Unknown = Ratio{}

// Known wraps a conversion factor.
func Known(value decimal.Decimal) Ratio {
	return Ratio{Value: value, Known: true}
}

// OrZero returns the factor, or zero for an unknown ratio.
func (r Ratio) OrZero() decimal.Decimal {
	if !r.Known {
		return decimal.Zero
	}
	return r.Value
}

// Table maps CEDEAR tickers to conversion factors.
type Table struct {
	ratios map[string]decimal.Decimal
}

// NewTable builds a table from ticker -> factor. Tickers are normalized.
func NewTable(ratios map[string]float64) *Table {
	t := &Table{ratios: make(map[string]decimal.Decimal, len(ratios))}
	for ticker, v := range ratios {
		t.ratios[domain.NormalizeTicker(ticker)] = decimal.NewFromFloat(v)
	}
	return t
}

// Lookup returns the ratio of a ticker.
func (t *Table) Lookup(ticker string) Ratio {
	if t == nil {
		return Unknown
	}
	v, ok := t.ratios[domain.NormalizeTicker(ticker)]
	if !ok {
		return Unknown
	}
	return Known(v)
}

// UnderlyingShares converts a CEDEAR quantity to underlying shares:
// quantity × ratio(ticker), 0 for an unknown ticker.
func (t *Table) UnderlyingShares(ticker string, quantity int64) float64 {
	r := t.Lookup(ticker)
	if !r.Known {
		return 0
	}
	return r.Value.Mul(decimal.NewFromInt(quantity)).InexactFloat64()
}

// Len returns the number of tickers in the table.
func (t *Table) Len() int { return len(t.ratios) }

var defaultTable = NewTable(defaultRatios)

// Default returns the built-in ratio table.
func Default() *Table { return defaultTable }

// Lookup looks a ticker up in the built-in table.
func Lookup(ticker string) Ratio { return defaultTable.Lookup(ticker) }

// UnderlyingShares converts using the built-in table.
func UnderlyingShares(ticker string, quantity int64) float64 {
	return defaultTable.UnderlyingShares(ticker, quantity)
}
