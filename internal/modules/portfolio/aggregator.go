package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/shopspring/decimal"
)

// lotState is the running state of one ticker while replaying transactions.
type lotState struct {
	costARS  decimal.Decimal
	costUSD  decimal.Decimal
	avgRate  decimal.Decimal
	avgUnix  float64
	quantity int64
}

func (s *lotState) buy(tx domain.Transaction) {
	s.quantity += tx.Quantity
	s.costARS = s.costARS.Add(tx.TotalARS)
	s.costUSD = s.costUSD.Add(tx.TotalUSD)

	if s.quantity <= 0 {
		return
	}
	// Weight of the new lot relative to the running quantity after adding it.
	weight := decimal.NewFromInt(tx.Quantity).Div(decimal.NewFromInt(s.quantity))
	if weight.GreaterThan(decimal.NewFromInt(1)) {
		weight = decimal.NewFromInt(1)
	}
	w := weight.InexactFloat64()
	s.avgUnix += (float64(tx.Date.Unix()) - s.avgUnix) * w
	s.avgRate = s.avgRate.Add(tx.USDRate.Sub(s.avgRate).Mul(weight))
}

// sell subtracts the sell's own totals from the cost pools. Pools are not
// reset when the quantity returns to zero, so a later rebuy carries the
// residual.
func (s *lotState) sell(tx domain.Transaction) {
	s.quantity -= tx.Quantity
	s.costARS = s.costARS.Sub(tx.TotalARS)
	s.costUSD = s.costUSD.Sub(tx.TotalUSD)
}

// AggregatePositions folds transactions into the open positions of each
// ticker, valued with the given price snapshot. Only tickers with a positive
// net quantity are returned, ordered by ARS value descending.
func (c *Calculator) AggregatePositions(txs []domain.Transaction, prices domain.PriceSnapshot, asOf time.Time) []Position {
	states := make(map[string]*lotState)
	var order []string
	for _, tx := range chronological(txs) {
		ticker := domain.NormalizeTicker(tx.Ticker)
		st, ok := states[ticker]
		if !ok {
			st = &lotState{}
			states[ticker] = st
			order = append(order, ticker)
		}
		switch {
		case tx.IsBuy():
			st.buy(tx)
		case tx.IsSell():
			st.sell(tx)
		}
	}

	priceIndex := prices.Index()
	positions := make([]Position, 0, len(order))
	for _, ticker := range order {
		st := states[ticker]
		if st.quantity <= 0 {
			continue
		}
		positions = append(positions, c.valuePosition(ticker, st, priceIndex, asOf))
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].ValueARS.GreaterThan(positions[j].ValueARS)
	})
	assignPortfolioShare(positions)
	return positions
}

// AggregatePositions aggregates with the built-in ratio table and DefaultUSDRate.
func AggregatePositions(txs []domain.Transaction, prices domain.PriceSnapshot, asOf time.Time) []Position {
	return NewCalculator(nil, DefaultUSDRate).AggregatePositions(txs, prices, asOf)
}

func (c *Calculator) valuePosition(ticker string, st *lotState, prices map[string]domain.CurrentPrice, asOf time.Time) Position {
	qty := decimal.NewFromInt(st.quantity)
	acquired := time.Unix(int64(math.Round(st.avgUnix)), 0).UTC()

	pos := Position{
		Ticker:            ticker,
		Quantity:          st.quantity,
		UnderlyingShares:  c.ratios.UnderlyingShares(ticker, st.quantity),
		CostARS:           st.costARS,
		CostUSD:           st.costUSD,
		AvgPriceARS:       st.costARS.Div(qty),
		AvgPriceUSD:       st.costUSD.Div(qty),
		HistoricalUSDRate: st.avgRate,
		AcquiredAt:        acquired,
		AvgHoldingDays:    domain.DaysBetween(acquired, asOf),
	}

	if p, ok := prices[ticker]; ok && p.PriceARS.IsPositive() {
		pos.HasPrice = true
		pos.CurrentPriceARS = p.PriceARS
		pos.CurrentUSDRate = p.USDRate
	} else {
		// Without a quote the position is carried at cost.
		pos.CurrentPriceARS = pos.AvgPriceARS
		pos.CurrentUSDRate = st.avgRate
	}
	if !pos.CurrentUSDRate.IsPositive() {
		pos.CurrentUSDRate = c.fallbackRate
	}

	pos.ValueARS = pos.CurrentPriceARS.Mul(qty)
	pos.ValueUSD = pos.ValueARS.Div(pos.CurrentUSDRate)
	if !pos.HasPrice {
		// Lots bought at different rates: the average rate does not
		// reproduce the USD cost.
		pos.ValueARS = pos.CostARS
		pos.ValueUSD = pos.CostUSD
	}
	pos.UnrealizedGainARS = pos.ValueARS.Sub(pos.CostARS)
	pos.UnrealizedGainUSD = pos.ValueUSD.Sub(pos.CostUSD)

	v := CalculateVariation(pos.AvgPriceARS, pos.CurrentPriceARS, pos.HistoricalUSDRate, pos.CurrentUSDRate)
	pos.VariationARS = v.ARS
	pos.VariationUSD = v.USD
	return pos
}

// assignPortfolioShare sets each position's share of the total ARS value.
func assignPortfolioShare(positions []Position) {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.ValueARS)
	}
	if !total.IsPositive() {
		return
	}
	for i := range positions {
		positions[i].PortfolioPct = positions[i].ValueARS.Div(total).Mul(hundred).InexactFloat64()
	}
}
