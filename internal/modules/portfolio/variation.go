package portfolio

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateVariation returns the percentage change between a purchase price
// and a current price in ARS, and the same change after converting both to USD
// with their respective rates. Results are rounded to two decimals. Non-positive
// prices or rates yield a zero variation for that currency.
func CalculateVariation(purchaseARS, currentARS, historicalRate, currentRate decimal.Decimal) Variation {
	var v Variation
	if !purchaseARS.IsPositive() {
		return v
	}

	v.ARS = percentChange(purchaseARS, currentARS)
	if historicalRate.IsPositive() && currentRate.IsPositive() {
		v.USD = percentChange(purchaseARS.Div(historicalRate), currentARS.Div(currentRate))
	}
	return v
}

func percentChange(from, to decimal.Decimal) float64 {
	if from.IsZero() {
		return 0
	}
	return to.Sub(from).Div(from).Mul(hundred).Round(2).InexactFloat64()
}
