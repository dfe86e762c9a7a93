package optimization

// Request is the input of an analysis or optimization.
type Request struct {
	// Tickers are the assets of the portfolio.
	Tickers []string `json:"tickers"`
	// Weights align with Tickers and must sum to 1. Required for analysis,
	// optional for optimization where they are evaluated as the current mix.
	Weights []float64 `json:"weights,omitempty"`
	// Benchmark is required; beta is measured against it.
	Benchmark string `json:"benchmark"`
	// Comparisons are optional extra benchmarks. Failures to fetch them are
	// tolerated and the benchmark is omitted.
	Comparisons   []string `json:"comparison_benchmarks,omitempty"`
	LookbackYears int      `json:"lookback_years"`
	// RiskFreeRate is echoed back but not subtracted in the Sharpe ratio.
	RiskFreeRate float64  `json:"risk_free_rate"`
	MinWeight    float64  `json:"min_weight"`
	TargetReturn *float64 `json:"target_return,omitempty"`
	Simulations  int      `json:"simulations,omitempty"`
	Seed         uint64   `json:"seed,omitempty"`
}

// Metrics are the annualized statistics of one return series.
type Metrics struct {
	AnnualReturn  float64  `json:"annual_return"`
	Volatility    float64  `json:"volatility"`
	Sharpe        float64  `json:"sharpe"`
	CAGR          float64  `json:"cagr"`
	Trailing12M   float64  `json:"trailing_12m"`
	DailyVariance float64  `json:"daily_variance"`
	Beta          *float64 `json:"beta,omitempty"`
}

// AssetMetrics are the metrics of one portfolio asset.
type AssetMetrics struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
	Metrics
}

// BenchmarkMetrics are the metrics of a benchmark series.
type BenchmarkMetrics struct {
	Ticker string `json:"ticker"`
	Metrics
}

// CorrelationPair is a pair of assets whose returns move together.
type CorrelationPair struct {
	TickerA     string  `json:"ticker_a"`
	TickerB     string  `json:"ticker_b"`
	Correlation float64 `json:"correlation"`
}

// AnalysisResult is the output of Analyze.
type AnalysisResult struct {
	Tickers             []string           `json:"tickers"`
	TradingDays         int                `json:"trading_days"`
	Assets              []AssetMetrics     `json:"assets"`
	Portfolio           Metrics            `json:"portfolio"`
	Benchmark           BenchmarkMetrics   `json:"benchmark"`
	Comparisons         []BenchmarkMetrics `json:"comparisons"`
	CorrelationMatrix   [][]float64        `json:"correlation_matrix"`
	CovarianceMatrix    [][]float64        `json:"covariance_matrix"`
	HighCorrelations    []CorrelationPair  `json:"high_correlations"`
	Warnings            []string           `json:"warnings"`
	RiskFreeRate        float64            `json:"risk_free_rate"`
	RiskFreeRateApplied bool               `json:"risk_free_rate_applied"`
}

// PortfolioPoint is one weight vector with its annualized return, volatility
// and Sharpe ratio.
type PortfolioPoint struct {
	Weights    map[string]float64 `json:"weights"`
	Return     float64            `json:"return"`
	Volatility float64            `json:"volatility"`
	Sharpe     float64            `json:"sharpe"`
}

// OptimizationResult is the output of Optimize.
type OptimizationResult struct {
	AnalysisResult
	Current       *PortfolioPoint  `json:"current,omitempty"`
	MaxSharpe     PortfolioPoint   `json:"max_sharpe"`
	MinVolatility PortfolioPoint   `json:"min_volatility"`
	TargetReturn  *PortfolioPoint  `json:"target_return,omitempty"`
	Frontier      []PortfolioPoint `json:"frontier"`
	Simulations   int              `json:"simulations"`
	Seed          uint64           `json:"seed"`
}
