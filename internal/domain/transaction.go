// Package domain provides the core portfolio models and the store contracts
// the accounting engine is fed from.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a transaction
type TransactionType string

const (
	// TransactionTypeBuy adds quantity to a position
	TransactionTypeBuy TransactionType = "compra"
	// TransactionTypeSell removes quantity from a position
	TransactionTypeSell TransactionType = "venta"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}

// Transaction is one buy or sell of a CEDEAR. Transactions are immutable once
// stored; the only mutation is delete. Monetary values are decimals in major units.
type Transaction struct {
	Date             time.Time       `json:"fecha"`
	CreatedAt        time.Time       `json:"created_at"`
	PriceARS         decimal.Decimal `json:"precio_ars"`
	USDRate          decimal.Decimal `json:"usd_rate_historico"`
	TotalARS         decimal.Decimal `json:"total_ars"`
	TotalUSD         decimal.Decimal `json:"total_usd"`
	USDPerCedear     decimal.Decimal `json:"usd_por_cedear"`
	SharePriceUSD    decimal.Decimal `json:"precio_accion_usd"`
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Type             TransactionType `json:"tipo"`
	Ticker           string          `json:"ticker"`
	Category         string          `json:"categoria"`
	Quantity         int64           `json:"cantidad"`
	UnderlyingShares float64         `json:"cantidad_acciones_reales"`
	HoldingDays      int             `json:"dias_tenencia"`
}

// IsBuy reports whether the transaction is a purchase.
func (t Transaction) IsBuy() bool { return t.Type == TransactionTypeBuy }

// IsSell reports whether the transaction is a sale.
func (t Transaction) IsSell() bool { return t.Type == TransactionTypeSell }

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// DaysBetween counts whole calendar days from a to b (negative if b precedes a).
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
