// Package formulas holds the return-series statistics used by the optimizer.
//
// Every dispersion measure here is a population statistic (divide by N, not N-1).
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the population variance of a series
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopVariance(data, nil)
}

// StdDev calculates the population standard deviation of a series
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// Covariance calculates the population covariance between two equally long series.
// Mismatched or empty inputs yield 0.
func Covariance(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	if n == 1 {
		return 0
	}
	// stat.Covariance is the unbiased estimator; rescale to N.
	return stat.Covariance(x, y, nil) * float64(n-1) / float64(n)
}

// Correlation is covariance(x, y) / (σx·σy). A flat series has no defined
// correlation and yields 0.
func Correlation(x, y []float64) float64 {
	sx, sy := StdDev(x), StdDev(y)
	if sx == 0 || sy == 0 {
		return 0
	}
	return Covariance(x, y) / (sx * sy)
}

// PortfolioReturns combines per-asset daily returns into the weighted daily
// portfolio return: out[i] = Σj weights[j] × assetReturns[j][i].
// All series must share the length of the first one.
func PortfolioReturns(weights []float64, assetReturns [][]float64) []float64 {
	if len(assetReturns) == 0 {
		return []float64{}
	}
	n := len(assetReturns[0])
	out := make([]float64, n)
	for j, series := range assetReturns {
		if j >= len(weights) {
			break
		}
		w := weights[j]
		for i := 0; i < n && i < len(series); i++ {
			out[i] += w * series[i]
		}
	}
	return out
}

// Beta is covariance(portfolio, benchmark) / variance(benchmark).
func Beta(portfolio, benchmark []float64) float64 {
	v := Variance(benchmark)
	if v == 0 {
		return 0
	}
	return Covariance(portfolio, benchmark) / v
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: σ(daily) × √252
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to simple returns
// Returns[i] = Price[i+1]/Price[i] - 1
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = prices[i]/prices[i-1] - 1
		}
	}

	return returns
}
