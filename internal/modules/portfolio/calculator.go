package portfolio

import (
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/cedears"
	"github.com/shopspring/decimal"
)

// DefaultUSDRate is used when neither a price snapshot nor the transactions
// provide a current FX rate.
var DefaultUSDRate = decimal.NewFromInt(1000)

// Calculator derives positions, closed operations and summaries from a
// user's transactions. It holds no state between calls; equal inputs give
// equal outputs.
type Calculator struct {
	ratios       *cedears.Table
	fallbackRate decimal.Decimal
}

// NewCalculator creates a calculator. A nil table falls back to the built-in
// ratios and a non-positive fallback rate to DefaultUSDRate.
func NewCalculator(ratios *cedears.Table, fallbackRate decimal.Decimal) *Calculator {
	if ratios == nil {
		ratios = cedears.Default()
	}
	if !fallbackRate.IsPositive() {
		fallbackRate = DefaultUSDRate
	}
	return &Calculator{ratios: ratios, fallbackRate: fallbackRate}
}

// Ratios returns the conversion table used by the calculator.
func (c *Calculator) Ratios() *cedears.Table { return c.ratios }

// Enhance applies EnhanceAll with the calculator's table.
func (c *Calculator) Enhance(txs []domain.Transaction, asOf time.Time) []domain.Transaction {
	return EnhanceAll(txs, c.ratios, asOf)
}
