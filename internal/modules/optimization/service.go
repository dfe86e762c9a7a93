// Package optimization computes portfolio statistics from historical series
// and searches for efficient weightings by Monte-Carlo simulation.
package optimization

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/history"
	"github.com/cartera-ar/cartera/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	// HighCorrelationThreshold flags asset pairs whose |ρ| exceeds it.
	HighCorrelationThreshold = 0.85

	weightSumTolerance = 1e-6
)

// Config holds optimizer settings
type Config struct {
	Simulations          int
	MaxSimulations       int
	FrontierPoints       int
	MinTradingDays       int
	DefaultLookbackYears int
	FetchTimeout         time.Duration
	FetchRetries         int
	RetryBackoff         time.Duration
	FetchConcurrency     int
}

// DefaultConfig returns the default optimizer settings
func DefaultConfig() Config {
	return Config{
		Simulations:          10000,
		MaxSimulations:       100000,
		FrontierPoints:       100,
		MinTradingDays:       60,
		DefaultLookbackYears: 3,
		FetchTimeout:         15 * time.Second,
		FetchRetries:         2,
		RetryBackoff:         500 * time.Millisecond,
		FetchConcurrency:     4,
	}
}

// Service runs portfolio analyses and optimizations.
type Service struct {
	cfg     Config
	fetcher *seriesFetcher
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a new optimizer service reading series from provider.
func NewService(provider history.Provider, cfg Config, log zerolog.Logger) *Service {
	def := DefaultConfig()
	if cfg.Simulations <= 0 {
		cfg.Simulations = def.Simulations
	}
	if cfg.MaxSimulations <= 0 {
		cfg.MaxSimulations = def.MaxSimulations
	}
	if cfg.FrontierPoints <= 0 {
		cfg.FrontierPoints = def.FrontierPoints
	}
	if cfg.MinTradingDays <= 0 {
		cfg.MinTradingDays = def.MinTradingDays
	}
	if cfg.DefaultLookbackYears <= 0 {
		cfg.DefaultLookbackYears = def.DefaultLookbackYears
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}

	log = log.With().Str("service", "optimizer").Logger()
	return &Service{
		cfg: cfg,
		fetcher: &seriesFetcher{
			provider:    provider,
			timeout:     cfg.FetchTimeout,
			retries:     cfg.FetchRetries,
			backoff:     cfg.RetryBackoff,
			concurrency: cfg.FetchConcurrency,
			log:         log,
		},
		now: time.Now,
		log: log,
	}
}

// YahooSymbol maps a CEDEAR ticker to the symbol of its underlying share.
func YahooSymbol(ticker string) string {
	return strings.ReplaceAll(domain.NormalizeTicker(ticker), ".", "-")
}

// normalize validates a request and fills in defaults. requireWeights is
// set for analyses.
func (s *Service) normalize(req Request, requireWeights bool) (Request, error) {
	if len(req.Tickers) == 0 {
		return req, fmt.Errorf("%w: at least one ticker is required", ErrInvalidRequest)
	}
	seen := make(map[string]bool, len(req.Tickers))
	tickers := make([]string, len(req.Tickers))
	for i, t := range req.Tickers {
		t = domain.NormalizeTicker(t)
		if t == "" {
			return req, fmt.Errorf("%w: empty ticker", ErrInvalidRequest)
		}
		if seen[t] {
			return req, fmt.Errorf("%w: duplicate ticker %s", ErrInvalidRequest, t)
		}
		seen[t] = true
		tickers[i] = t
	}
	req.Tickers = tickers

	req.Benchmark = domain.NormalizeTicker(req.Benchmark)
	if req.Benchmark == "" {
		return req, fmt.Errorf("%w: benchmark is required", ErrInvalidRequest)
	}

	if req.LookbackYears == 0 {
		req.LookbackYears = s.cfg.DefaultLookbackYears
	}
	if req.LookbackYears < 1 {
		return req, fmt.Errorf("%w: lookback_years must be at least 1", ErrInvalidRequest)
	}

	if req.MinWeight < 0 || req.MinWeight*float64(len(req.Tickers)) > 1+weightSumTolerance {
		return req, fmt.Errorf("%w: min_weight × tickers must not exceed 1", ErrInvalidRequest)
	}

	if requireWeights && len(req.Weights) == 0 {
		return req, fmt.Errorf("%w: weights are required", ErrInvalidWeights)
	}
	if len(req.Weights) > 0 {
		if err := validateWeights(req.Weights, len(req.Tickers)); err != nil {
			return req, err
		}
	}

	if req.Simulations <= 0 {
		req.Simulations = s.cfg.Simulations
	}
	if req.Simulations > s.cfg.MaxSimulations {
		req.Simulations = s.cfg.MaxSimulations
	}
	return req, nil
}

func validateWeights(weights []float64, n int) error {
	if len(weights) != n {
		return fmt.Errorf("%w: got %d weights for %d tickers", ErrInvalidWeights, len(weights), n)
	}
	var sum float64
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: weights must be non-negative", ErrInvalidWeights)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, expected 1", ErrInvalidWeights, sum)
	}
	return nil
}

// dataset is the aligned return series of a request.
type dataset struct {
	assets      [][]float64
	benchmark   []float64
	comparisons map[string][]float64
	omitted     []string
	days        int
}

func (s *Service) load(ctx context.Context, req Request) (*dataset, error) {
	to := s.now()
	from := to.AddDate(-req.LookbackYears, 0, 0)

	required := make([]string, 0, len(req.Tickers)+1)
	for _, t := range req.Tickers {
		required = append(required, YahooSymbol(t))
	}
	benchmarkSymbol := YahooSymbol(req.Benchmark)
	required = append(required, benchmarkSymbol)

	optional := make([]string, 0, len(req.Comparisons))
	for _, c := range req.Comparisons {
		if c = YahooSymbol(c); c != "" && c != benchmarkSymbol {
			optional = append(optional, c)
		}
	}

	start := time.Now()
	closes, omitted, err := s.fetcher.fetchAll(ctx, required, optional, from, to)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("symbols", len(closes)).
		Dur("took", time.Since(start)).
		Msg("Fetched historical series")

	returns := make(map[string][]float64, len(closes))
	for symbol, c := range closes {
		returns[symbol] = formulas.CalculateReturns(c)
	}

	// Required series are truncated to the shortest one, keeping the most
	// recent observations.
	days := math.MaxInt
	for _, symbol := range required {
		days = min(days, len(returns[symbol]))
	}
	if days < s.cfg.MinTradingDays {
		return nil, fmt.Errorf("%w: %d trading days available, %d required", ErrInsufficientData, days, s.cfg.MinTradingDays)
	}

	ds := &dataset{
		assets:      make([][]float64, len(req.Tickers)),
		benchmark:   tail(returns[benchmarkSymbol], days),
		comparisons: make(map[string][]float64),
		omitted:     omitted,
		days:        days,
	}
	for i, t := range req.Tickers {
		ds.assets[i] = tail(returns[YahooSymbol(t)], days)
	}
	for _, c := range optional {
		r, ok := returns[c]
		if !ok {
			continue
		}
		if len(r) < days {
			ds.omitted = append(ds.omitted, c)
			continue
		}
		ds.comparisons[c] = tail(r, days)
	}
	return ds, nil
}

func tail(series []float64, n int) []float64 {
	return series[len(series)-n:]
}

func seriesMetrics(returns, benchmark []float64) Metrics {
	m := Metrics{
		AnnualReturn:  formulas.AnnualizedReturn(returns),
		Volatility:    formulas.AnnualizedVolatility(returns),
		Sharpe:        formulas.SharpeRatio(returns, 0),
		CAGR:          formulas.CAGR(returns),
		Trailing12M:   formulas.TrailingYearReturn(returns),
		DailyVariance: formulas.Variance(returns),
	}
	if benchmark != nil {
		beta := formulas.Beta(returns, benchmark)
		m.Beta = &beta
	}
	return m
}

func highCorrelations(tickers []string, corr [][]float64) []CorrelationPair {
	pairs := []CorrelationPair{}
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			if math.Abs(corr[i][j]) > HighCorrelationThreshold {
				pairs = append(pairs, CorrelationPair{
					TickerA:     tickers[i],
					TickerB:     tickers[j],
					Correlation: corr[i][j],
				})
			}
		}
	}
	return pairs
}

// analyze computes the statistics shared by Analyze and Optimize. weights
// may be nil, in which case portfolio metrics use equal weights.
func (s *Service) analyze(req Request, ds *dataset) AnalysisResult {
	weights := req.Weights
	if len(weights) == 0 {
		weights = equalWeights(len(req.Tickers))
	}

	res := AnalysisResult{
		Tickers:             req.Tickers,
		TradingDays:         ds.days,
		Assets:              make([]AssetMetrics, len(req.Tickers)),
		Comparisons:         []BenchmarkMetrics{},
		Warnings:            []string{},
		RiskFreeRate:        req.RiskFreeRate,
		RiskFreeRateApplied: false,
	}

	for i, t := range req.Tickers {
		res.Assets[i] = AssetMetrics{
			Ticker:  t,
			Weight:  weights[i],
			Metrics: seriesMetrics(ds.assets[i], ds.benchmark),
		}
	}

	portfolio := formulas.PortfolioReturns(weights, ds.assets)
	res.Portfolio = seriesMetrics(portfolio, ds.benchmark)
	res.Benchmark = BenchmarkMetrics{Ticker: req.Benchmark, Metrics: seriesMetrics(ds.benchmark, nil)}

	for _, c := range req.Comparisons {
		symbol := YahooSymbol(c)
		r, ok := ds.comparisons[symbol]
		if !ok {
			continue
		}
		res.Comparisons = append(res.Comparisons, BenchmarkMetrics{
			Ticker:  domain.NormalizeTicker(c),
			Metrics: seriesMetrics(r, nil),
		})
	}
	for _, symbol := range ds.omitted {
		res.Warnings = append(res.Warnings, fmt.Sprintf("comparison benchmark %s omitted: no data", symbol))
	}

	res.CovarianceMatrix = formulas.CovarianceMatrix(ds.assets)
	res.CorrelationMatrix = formulas.CorrelationMatrix(ds.assets)
	res.HighCorrelations = highCorrelations(req.Tickers, res.CorrelationMatrix)
	for _, p := range res.HighCorrelations {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s and %s are highly correlated (%.2f)", p.TickerA, p.TickerB, p.Correlation))
	}
	return res
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// Analyze computes asset, portfolio and benchmark statistics for a weighted
// portfolio. The request fails as a whole if any required series is missing
// or too short.
func (s *Service) Analyze(ctx context.Context, req Request) (*AnalysisResult, error) {
	req, err := s.normalize(req, true)
	if err != nil {
		return nil, err
	}
	ds, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	res := s.analyze(req, ds)
	s.log.Info().
		Strs("tickers", req.Tickers).
		Str("benchmark", req.Benchmark).
		Int("trading_days", ds.days).
		Float64("sharpe", res.Portfolio.Sharpe).
		Msg("Portfolio analyzed")
	return &res, nil
}

// Optimize analyzes the assets and searches the weight space by Monte-Carlo
// simulation. It reports the max-Sharpe portfolio, the minimum-volatility
// portfolio (refined by a local optimizer), the minimum-volatility portfolio
// reaching the target return when one is requested, and the efficient frontier.
func (s *Service) Optimize(ctx context.Context, req Request) (*OptimizationResult, error) {
	req, err := s.normalize(req, false)
	if err != nil {
		return nil, err
	}
	ds, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = uint64(s.now().UnixNano())
	}

	model := &assetModel{
		tickers:   req.Tickers,
		meanDaily: make([]float64, len(req.Tickers)),
		covDaily:  formulas.CovarianceMatrix(ds.assets),
	}
	for i, r := range ds.assets {
		model.meanDaily[i] = formulas.Mean(r)
	}

	start := time.Now()
	evals := model.simulate(req.Simulations, req.MinWeight, seed)

	res := &OptimizationResult{
		AnalysisResult: s.analyze(req, ds),
		Simulations:    req.Simulations,
		Seed:           seed,
	}

	best := maxSharpe(evals)
	lowest := minVolatility(evals)
	if refined, ok := model.refineMinVolatility(lowest, req.MinWeight); ok {
		s.log.Debug().
			Float64("monte_carlo", lowest.volatility).
			Float64("refined", refined.volatility).
			Msg("Refined minimum-volatility portfolio")
		lowest = refined
	}
	res.MaxSharpe = s.point(req.Tickers, best)
	res.MinVolatility = s.point(req.Tickers, lowest)

	if req.TargetReturn != nil {
		if e, ok := minVolatilityAbove(evals, *req.TargetReturn); ok {
			p := s.point(req.Tickers, e)
			res.TargetReturn = &p
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no simulated portfolio reaches the target return %.4f", *req.TargetReturn))
		}
	}

	if len(req.Weights) > 0 {
		p := s.point(req.Tickers, model.evaluate(req.Weights))
		res.Current = &p
	}

	frontier := efficientFrontier(evals, s.cfg.FrontierPoints)
	res.Frontier = make([]PortfolioPoint, 0, len(frontier))
	for _, e := range frontier {
		res.Frontier = append(res.Frontier, s.point(req.Tickers, e))
	}

	s.log.Info().
		Strs("tickers", req.Tickers).
		Int("simulations", req.Simulations).
		Uint64("seed", seed).
		Float64("max_sharpe", best.sharpe).
		Float64("min_volatility", lowest.volatility).
		Dur("took", time.Since(start)).
		Msg("Portfolio optimized")
	return res, nil
}

func (s *Service) point(tickers []string, e evaluation) PortfolioPoint {
	weights := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		weights[t] = e.weights[i]
	}
	return PortfolioPoint{
		Weights:    weights,
		Return:     e.ret,
		Volatility: e.volatility,
		Sharpe:     e.sharpe,
	}
}
