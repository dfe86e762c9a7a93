package optimization

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// refineMinVolatility searches for a lower-volatility portfolio than start
// with a local optimizer. Weights are parametrized as
// w = minWeight + free·softmax(x), so every candidate satisfies the weight
// floor and sums to 1. It returns false when no improvement is found.
func (m *assetModel) refineMinVolatility(start evaluation, minWeight float64) (evaluation, bool) {
	n := len(m.tickers)
	free := 1 - float64(n)*minWeight
	if n < 2 || free <= 1e-9 {
		return start, false
	}

	toWeights := func(x []float64) []float64 {
		p := softmax(x)
		w := make([]float64, n)
		for i := range w {
			w[i] = minWeight + free*p[i]
		}
		return w
	}
	variance := func(w []float64) float64 {
		var v float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v += w[i] * w[j] * m.covDaily[i][j]
			}
		}
		return v
	}

	// The objective is normalized by the starting variance so tolerances
	// apply to relative improvements.
	scale := variance(start.weights)
	if scale <= 0 {
		return start, false
	}
	scale = 1 / scale

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return scale * variance(toWeights(x))
		},
		Grad: func(grad, x []float64) {
			p := softmax(x)
			w := toWeights(x)
			g := make([]float64, n)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					g[i] += 2 * m.covDaily[i][j] * w[j]
				}
			}
			var avg float64
			for i := range g {
				avg += g[i] * p[i]
			}
			for j := range grad {
				grad[j] = scale * free * p[j] * (g[j] - avg)
			}
		},
	}

	initial := make([]float64, n)
	for i, w := range start.weights {
		initial[i] = math.Log(math.Max((w-minWeight)/free, 1e-12))
	}

	settings := &optimize.Settings{MajorIterations: 500}
	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if err != nil || result == nil {
		result, err = optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
		if err != nil || result == nil {
			return start, false
		}
	}

	refined := m.evaluate(toWeights(result.X))
	if math.IsNaN(refined.volatility) || refined.volatility >= start.volatility-1e-12 {
		return start, false
	}
	return refined, true
}

func softmax(x []float64) []float64 {
	maxX := math.Inf(-1)
	for _, v := range x {
		maxX = math.Max(maxX, v)
	}
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		out[i] = math.Exp(v - maxX)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
