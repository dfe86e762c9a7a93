package portfolio

import (
	"sort"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/shopspring/decimal"
)

type buyLot struct {
	tx        domain.Transaction
	remaining int64
}

// CalculateClosedOperations matches every sell against the oldest open buy
// lots of the same ticker. Each (sell, lot) match produces one record.
// Sells beyond the open quantity are matched as far as lots allow and the
// excess is ignored. Records are ordered by sell date, then by lot age.
func CalculateClosedOperations(txs []domain.Transaction) []ClosedOperation {
	lots := make(map[string][]*buyLot)
	var ops []ClosedOperation

	for _, tx := range chronological(txs) {
		ticker := domain.NormalizeTicker(tx.Ticker)
		if tx.Quantity <= 0 {
			continue
		}
		if tx.IsBuy() {
			lots[ticker] = append(lots[ticker], &buyLot{tx: tx, remaining: tx.Quantity})
			continue
		}
		if !tx.IsSell() {
			continue
		}

		pending := tx.Quantity
		queue := lots[ticker]
		for pending > 0 && len(queue) > 0 {
			lot := queue[0]
			matched := min(pending, lot.remaining)
			ops = append(ops, closeLot(ticker, lot.tx, tx, matched))

			lot.remaining -= matched
			pending -= matched
			if lot.remaining == 0 {
				queue = queue[1:]
			}
		}
		lots[ticker] = queue
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].SellDate.Before(ops[j].SellDate)
	})
	return ops
}

func closeLot(ticker string, buy, sell domain.Transaction, matched int64) ClosedOperation {
	qty := decimal.NewFromInt(matched)
	buyUSD := buy.TotalUSD.Div(decimal.NewFromInt(buy.Quantity))
	sellUSD := sell.TotalUSD.Div(decimal.NewFromInt(sell.Quantity))

	return ClosedOperation{
		Ticker:            ticker,
		BuyDate:           buy.Date,
		SellDate:          sell.Date,
		Quantity:          matched,
		BuyPriceARS:       buy.PriceARS,
		SellPriceARS:      sell.PriceARS,
		GainARS:           sell.PriceARS.Sub(buy.PriceARS).Mul(qty),
		GainUSD:           sellUSD.Sub(buyUSD).Mul(qty),
		HoldingDays:       domain.DaysBetween(buy.Date, sell.Date),
		BuyTransactionID:  buy.ID,
		SellTransactionID: sell.ID,
	}
}

// RealizedGains sums the gains of closed operations.
func RealizedGains(ops []ClosedOperation) (ars, usd decimal.Decimal) {
	for _, op := range ops {
		ars = ars.Add(op.GainARS)
		usd = usd.Add(op.GainUSD)
	}
	return ars, usd
}
