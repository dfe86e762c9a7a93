package formulas

import "math"

// Compound returns Π(1+rᵢ) over the series.
func Compound(returns []float64) float64 {
	cumulative := 1.0
	for _, r := range returns {
		cumulative *= 1 + r
	}
	return cumulative
}

// CAGR calculates the compound annual growth rate of a daily return series:
// (Π(1+rᵢ))^(1/years) - 1 with years = N/252.
func CAGR(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	years := float64(len(returns)) / TradingDaysPerYear
	return math.Pow(Compound(returns), 1/years) - 1
}

// TrailingReturn compounds the last min(window, N) returns and subtracts 1.
func TrailingReturn(returns []float64, window int) float64 {
	if len(returns) == 0 || window <= 0 {
		return 0
	}
	if window > len(returns) {
		window = len(returns)
	}
	return Compound(returns[len(returns)-window:]) - 1
}

// TrailingYearReturn is the trailing-12-month (252 trading days) return.
func TrailingYearReturn(returns []float64) float64 {
	return TrailingReturn(returns, TradingDaysPerYear)
}

// AnnualizedReturn is the arithmetic mean daily return × 252.
func AnnualizedReturn(dailyReturns []float64) float64 {
	return Mean(dailyReturns) * TradingDaysPerYear
}
