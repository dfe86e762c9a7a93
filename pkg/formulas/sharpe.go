package formulas

// SharpeRatio calculates the annualized Sharpe ratio of a daily return series:
//
//	(annualized mean return - riskFreeRate) / annualized volatility
//
// riskFreeRate is annual, as a decimal. A zero-volatility series yields 0.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	vol := AnnualizedVolatility(dailyReturns)
	if vol == 0 {
		return 0
	}
	return (AnnualizedReturn(dailyReturns) - riskFreeRate) / vol
}

// SharpeFromMoments is the same ratio for already annualized moments.
func SharpeFromMoments(annualReturn, annualVolatility, riskFreeRate float64) float64 {
	if annualVolatility == 0 {
		return 0
	}
	return (annualReturn - riskFreeRate) / annualVolatility
}
