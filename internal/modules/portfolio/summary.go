package portfolio

import (
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/shopspring/decimal"
)

// Summarize builds the full portfolio summary of a user. It returns nil when
// there are no transactions. The current FX rate is taken from the first entry
// of the price snapshot, or the fallback rate when the snapshot has none.
func (c *Calculator) Summarize(txs []domain.Transaction, prices domain.PriceSnapshot, asOf time.Time) *PortfolioSummary {
	if len(txs) == 0 {
		return nil
	}

	positions := c.AggregatePositions(txs, prices, asOf)
	closed := CalculateClosedOperations(txs)
	realizedARS, realizedUSD := RealizedGains(closed)

	s := &PortfolioSummary{
		AsOf:                 asOf,
		Positions:            positions,
		ClosedOperations:     closed,
		TotalRealizedGainARS: realizedARS,
		TotalRealizedGainUSD: realizedUSD,
		USDRateActual:        c.currentRate(prices),
	}
	for _, p := range positions {
		s.TotalValueARS = s.TotalValueARS.Add(p.ValueARS)
		s.TotalValueUSD = s.TotalValueUSD.Add(p.ValueUSD)
		s.TotalCostARS = s.TotalCostARS.Add(p.CostARS)
		s.TotalCostUSD = s.TotalCostUSD.Add(p.CostUSD)
	}
	s.TotalUnrealizedGainARS = s.TotalValueARS.Sub(s.TotalCostARS)
	s.TotalUnrealizedGainUSD = s.TotalValueUSD.Sub(s.TotalCostUSD)
	s.TotalGainARS = s.TotalUnrealizedGainARS.Add(realizedARS)
	s.TotalGainUSD = s.TotalUnrealizedGainUSD.Add(realizedUSD)
	return s
}

func (c *Calculator) currentRate(prices domain.PriceSnapshot) decimal.Decimal {
	if len(prices) > 0 && prices[0].USDRate.IsPositive() {
		return prices[0].USDRate
	}
	return c.fallbackRate
}

// CalculateSummary summarizes with the built-in ratio table.
func CalculateSummary(txs []domain.Transaction, prices domain.PriceSnapshot, asOf time.Time, fallbackRate decimal.Decimal) *PortfolioSummary {
	return NewCalculator(nil, fallbackRate).Summarize(txs, prices, asOf)
}
