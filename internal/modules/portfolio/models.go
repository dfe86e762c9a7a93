package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the open holding of one ticker, derived from transactions and
// valued at the current price. Positions are never persisted.
type Position struct {
	AcquiredAt        time.Time       `json:"fecha_promedio_compra"`
	CurrentPriceARS   decimal.Decimal `json:"precio_actual_ars"`
	CurrentUSDRate    decimal.Decimal `json:"usd_rate_actual"`
	HistoricalUSDRate decimal.Decimal `json:"usd_rate_historico_promedio"`
	AvgPriceARS       decimal.Decimal `json:"precio_promedio_ars"`
	AvgPriceUSD       decimal.Decimal `json:"precio_promedio_usd"`
	CostARS           decimal.Decimal `json:"costo_total_ars"`
	CostUSD           decimal.Decimal `json:"costo_total_usd"`
	ValueARS          decimal.Decimal `json:"valor_actual_ars"`
	ValueUSD          decimal.Decimal `json:"valor_actual_usd"`
	UnrealizedGainARS decimal.Decimal `json:"ganancia_no_realizada_ars"`
	UnrealizedGainUSD decimal.Decimal `json:"ganancia_no_realizada_usd"`
	Ticker            string          `json:"ticker"`
	Quantity          int64           `json:"cantidad"`
	UnderlyingShares  float64         `json:"cantidad_acciones_reales"`
	PortfolioPct      float64         `json:"porcentaje_cartera"`
	AvgHoldingDays    int             `json:"dias_tenencia_promedio"`
	VariationARS      float64         `json:"variacion_ars"`
	VariationUSD      float64         `json:"variacion_usd"`
	HasPrice          bool            `json:"tiene_precio"`
}

// ClosedOperation is one FIFO match between a sell and a buy lot.
// A sell consuming several lots yields one record per lot.
type ClosedOperation struct {
	BuyDate           time.Time       `json:"fecha_compra"`
	SellDate          time.Time       `json:"fecha_venta"`
	BuyPriceARS       decimal.Decimal `json:"precio_compra_ars"`
	SellPriceARS      decimal.Decimal `json:"precio_venta_ars"`
	GainARS           decimal.Decimal `json:"ganancia_ars"`
	GainUSD           decimal.Decimal `json:"ganancia_usd"`
	Ticker            string          `json:"ticker"`
	BuyTransactionID  string          `json:"compra_id,omitempty"`
	SellTransactionID string          `json:"venta_id,omitempty"`
	Quantity          int64           `json:"cantidad"`
	HoldingDays       int             `json:"dias_tenencia"`
}

// PortfolioSummary aggregates positions and realized gains of one user.
type PortfolioSummary struct {
	AsOf                   time.Time         `json:"as_of"`
	TotalValueARS          decimal.Decimal   `json:"valor_total_ars"`
	TotalValueUSD          decimal.Decimal   `json:"valor_total_usd"`
	TotalCostARS           decimal.Decimal   `json:"costo_total_ars"`
	TotalCostUSD           decimal.Decimal   `json:"costo_total_usd"`
	TotalUnrealizedGainARS decimal.Decimal   `json:"ganancia_no_realizada_ars"`
	TotalUnrealizedGainUSD decimal.Decimal   `json:"ganancia_no_realizada_usd"`
	TotalRealizedGainARS   decimal.Decimal   `json:"ganancia_realizada_ars"`
	TotalRealizedGainUSD   decimal.Decimal   `json:"ganancia_realizada_usd"`
	TotalGainARS           decimal.Decimal   `json:"ganancia_total_ars"`
	TotalGainUSD           decimal.Decimal   `json:"ganancia_total_usd"`
	USDRateActual          decimal.Decimal   `json:"usd_rate_actual"`
	Positions              []Position        `json:"posiciones"`
	ClosedOperations       []ClosedOperation `json:"operaciones_cerradas"`
}

// Variation is the percentage change of a position in each currency,
// rounded to two decimals.
type Variation struct {
	ARS float64 `json:"variacion_ars"`
	USD float64 `json:"variacion_usd"`
}
