package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentPrice is the latest known quote of a ticker. One per ticker,
// last write wins. It is supplied externally and never derived from transactions.
type CurrentPrice struct {
	UpdatedAt time.Time       `json:"updated_at"`
	PriceARS  decimal.Decimal `json:"precio_ars"`
	USDRate   decimal.Decimal `json:"usd_rate"`
	Ticker    string          `json:"ticker"`
}

// PriceSnapshot is a point-in-time, ordered view of current prices.
// Order matters: the first entry supplies the current FX rate of a summary.
type PriceSnapshot []CurrentPrice

// Index returns the snapshot keyed by ticker. Later duplicates win.
func (s PriceSnapshot) Index() map[string]CurrentPrice {
	out := make(map[string]CurrentPrice, len(s))
	for _, p := range s {
		out[NormalizeTicker(p.Ticker)] = p
	}
	return out
}
