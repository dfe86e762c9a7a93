package portfolio

import (
	"fmt"
	"sort"

	"github.com/cartera-ar/cartera/internal/domain"
)

// ValidateTransaction checks the fields a caller must supply.
func ValidateTransaction(tx domain.Transaction) error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if domain.NormalizeTicker(tx.Ticker) == "" {
		return ErrMissingTicker
	}
	if tx.Date.IsZero() {
		return ErrMissingDate
	}
	if tx.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !tx.PriceARS.IsPositive() {
		return ErrInvalidPrice
	}
	if !tx.USDRate.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}

// ValidateSequence replays transactions in chronological order and fails if
// any sell takes a ticker's running quantity below zero.
func ValidateSequence(txs []domain.Transaction) error {
	open := make(map[string]int64)
	for _, tx := range chronological(txs) {
		ticker := domain.NormalizeTicker(tx.Ticker)
		switch {
		case tx.IsBuy():
			open[ticker] += tx.Quantity
		case tx.IsSell():
			open[ticker] -= tx.Quantity
			if open[ticker] < 0 {
				return fmt.Errorf("%w: %s on %s", ErrOverSell, ticker, tx.Date.Format("2006-01-02"))
			}
		}
	}
	return nil
}

// chronological returns a copy of txs ordered by date. Same-date records keep
// their input order.
func chronological(txs []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
