package portfolio

import (
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/cedears"
	"github.com/shopspring/decimal"
)

// TransactionInput is the user-supplied part of a transaction. Totals and
// derived USD fields are computed by BuildTransaction.
type TransactionInput struct {
	Date     time.Time              `json:"fecha"`
	PriceARS decimal.Decimal        `json:"precio_ars"`
	USDRate  decimal.Decimal        `json:"usd_rate_historico"`
	Type     domain.TransactionType `json:"tipo"`
	Ticker   string                 `json:"ticker"`
	Category string                 `json:"categoria"`
	Quantity int64                  `json:"cantidad"`
}

// BuildTransaction validates an input and fills in its totals:
// total_ars = price × quantity and total_usd = total_ars / usd_rate.
// The result is enhanced with the per-CEDEAR and underlying-share figures.
// Only the calendar day of the input date is kept, as stored.
func BuildTransaction(in TransactionInput, ratios *cedears.Table) (domain.Transaction, error) {
	y, m, d := in.Date.Date()
	tx := domain.Transaction{
		Date:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		PriceARS: in.PriceARS,
		USDRate:  in.USDRate,
		Type:     in.Type,
		Ticker:   domain.NormalizeTicker(in.Ticker),
		Category: in.Category,
		Quantity: in.Quantity,
	}
	if err := ValidateTransaction(tx); err != nil {
		return domain.Transaction{}, err
	}

	qty := decimal.NewFromInt(in.Quantity)
	tx.TotalARS = in.PriceARS.Mul(qty)
	tx.TotalUSD = tx.TotalARS.Div(in.USDRate)

	return EnhanceTransaction(tx, ratios)
}

// EnhanceTransaction derives the USD cost per CEDEAR, the underlying share
// count and the implied underlying share price. Unknown tickers get zero
// shares and a zero share price. The input is not modified.
func EnhanceTransaction(tx domain.Transaction, ratios *cedears.Table) (domain.Transaction, error) {
	if tx.Quantity <= 0 {
		return tx, ErrInvalidQuantity
	}

	ratio := ratios.Lookup(tx.Ticker)
	tx.USDPerCedear = tx.TotalUSD.Div(decimal.NewFromInt(tx.Quantity))
	tx.UnderlyingShares = ratios.UnderlyingShares(tx.Ticker, tx.Quantity)
	tx.SharePriceUSD = tx.USDPerCedear.Mul(ratio.OrZero())
	return tx, nil
}

// EnhanceAll enhances a list of transactions and sets the holding days of
// each one relative to asOf. Invalid records are returned unchanged.
func EnhanceAll(txs []domain.Transaction, ratios *cedears.Table, asOf time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		enhanced, err := EnhanceTransaction(tx, ratios)
		if err != nil {
			enhanced = tx
		}
		enhanced.HoldingDays = domain.DaysBetween(tx.Date, asOf)
		out = append(out, enhanced)
	}
	return out
}
