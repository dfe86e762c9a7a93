package cedears

// defaultRatios holds the conversion factor (CEDEARs per underlying share) of
// the most traded programs on BYMA.
var defaultRatios = map[string]float64{
	"AAPL":  20,
	"ABNB":  15,
	"AMD":   10,
	"AMZN":  144,
	"BABA":  9,
	"BIOX":  1,
	"BRKB":  22,
	"COIN":  27,
	"DIA":   20,
	"DIS":   12,
	"EEM":   5,
	"GLOB":  18,
	"GOLD":  1,
	"GOOGL": 58,
	"INTC":  5,
	"IWM":   10,
	"JPM":   5,
	"KO":    5,
	"MELI":  120,
	"META":  24,
	"MSFT":  30,
	"NFLX":  48,
	"NVDA":  24,
	"PBR":   1,
	"PFE":   4,
	"QQQ":   20,
	"SPY":   20,
	"TSLA":  15,
	"V":     18,
	"VIST":  3,
	"WMT":   18,
	"XLE":   2,
	"XOM":   10,
}
