package optimization

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cartera-ar/cartera/pkg/formulas"
)

// assetModel holds the annualized inputs of the mean-variance evaluation.
type assetModel struct {
	tickers   []string
	meanDaily []float64
	covDaily  [][]float64
}

// evaluation is one weight vector with its annualized statistics.
type evaluation struct {
	weights    []float64
	ret        float64
	volatility float64
	sharpe     float64
}

// evaluate returns the annualized return, volatility and Sharpe ratio of w.
// Return is Σ wᵢ·meanᵢ·252 and volatility √(w'Σw·252), consistent with the
// statistics of the weighted daily return series.
func (m *assetModel) evaluate(w []float64) evaluation {
	var mean float64
	for i, wi := range w {
		mean += wi * m.meanDaily[i]
	}
	ret := mean * formulas.TradingDaysPerYear
	variance := formulas.PortfolioVariance(w, m.covDaily)
	vol := math.Sqrt(math.Max(variance, 0) * formulas.TradingDaysPerYear)

	return evaluation{
		weights:    append([]float64(nil), w...),
		ret:        ret,
		volatility: vol,
		sharpe:     formulas.SharpeFromMoments(ret, vol, 0),
	}
}

// randomWeights draws a weight vector with every weight ≥ minWeight that
// sums to 1: wᵢ = minWeight + (1 - n·minWeight)·rawᵢ/Σraw.
func randomWeights(rng *rand.Rand, n int, minWeight float64) []float64 {
	raw := make([]float64, n)
	var sum float64
	for i := range raw {
		raw[i] = rng.Float64()
		sum += raw[i]
	}

	free := 1 - float64(n)*minWeight
	w := make([]float64, n)
	for i := range w {
		if sum == 0 {
			w[i] = 1 / float64(n)
			continue
		}
		w[i] = minWeight + free*raw[i]/sum
	}
	return w
}

// simulate evaluates simulations random portfolios drawn from a seeded PCG
// source, so equal seeds give equal results.
func (m *assetModel) simulate(simulations int, minWeight float64, seed uint64) []evaluation {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := len(m.tickers)

	out := make([]evaluation, 0, simulations)
	for i := 0; i < simulations; i++ {
		out = append(out, m.evaluate(randomWeights(rng, n, minWeight)))
	}
	return out
}

// maxSharpe returns the evaluation with the highest Sharpe ratio.
func maxSharpe(evals []evaluation) evaluation {
	best := evals[0]
	for _, e := range evals[1:] {
		if e.sharpe > best.sharpe {
			best = e
		}
	}
	return best
}

// minVolatility returns the evaluation with the lowest volatility.
func minVolatility(evals []evaluation) evaluation {
	best := evals[0]
	for _, e := range evals[1:] {
		if e.volatility < best.volatility {
			best = e
		}
	}
	return best
}

// minVolatilityAbove returns the lowest-volatility evaluation whose return is
// at least target, and false when none reaches it.
func minVolatilityAbove(evals []evaluation, target float64) (evaluation, bool) {
	var (
		best  evaluation
		found bool
	)
	for _, e := range evals {
		if e.ret < target {
			continue
		}
		if !found || e.volatility < best.volatility {
			best = e
			found = true
		}
	}
	return best, found
}

// efficientFrontier keeps the upper envelope of the cloud: walking by
// increasing volatility, a point is kept only if its return beats every
// less volatile point. At most maxPoints are returned, evenly spaced.
func efficientFrontier(evals []evaluation, maxPoints int) []evaluation {
	sorted := append([]evaluation(nil), evals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].volatility < sorted[j].volatility
	})

	var frontier []evaluation
	bestReturn := math.Inf(-1)
	for _, e := range sorted {
		if e.ret > bestReturn {
			frontier = append(frontier, e)
			bestReturn = e.ret
		}
	}

	if maxPoints <= 0 || len(frontier) <= maxPoints {
		return frontier
	}
	step := float64(len(frontier)-1) / float64(maxPoints-1)
	sampled := make([]evaluation, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		sampled = append(sampled, frontier[int(math.Round(float64(i)*step))])
	}
	return sampled
}
