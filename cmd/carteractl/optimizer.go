package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/cartera-ar/cartera/internal/modules/optimization"
	"github.com/google/subcommands"
)

// requestFlags are shared by analyze and optimize.
type requestFlags struct {
	tickers     string
	weights     string
	benchmark   string
	comparisons string
	years       int
	riskFree    float64
}

func (r *requestFlags) register(f *flag.FlagSet) {
	f.StringVar(&r.tickers, "tickers", "", "Comma separated tickers (required)")
	f.StringVar(&r.weights, "weights", "", "Comma separated weights aligned with -tickers")
	f.StringVar(&r.benchmark, "benchmark", "SPY", "Benchmark ticker")
	f.StringVar(&r.comparisons, "compare", "", "Comma separated comparison benchmarks")
	f.IntVar(&r.years, "years", 3, "Lookback in years")
	f.Float64Var(&r.riskFree, "rf", 0, "Risk free rate, reported only")
}

func (r *requestFlags) request() (optimization.Request, error) {
	weights, err := parseFloats(r.weights)
	if err != nil {
		return optimization.Request{}, err
	}
	return optimization.Request{
		Tickers:       splitList(r.tickers),
		Weights:       weights,
		Benchmark:     r.benchmark,
		Comparisons:   splitList(r.comparisons),
		LookbackYears: r.years,
		RiskFreeRate:  r.riskFree,
	}, nil
}

type analyzeCmd struct {
	requestFlags
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "report the statistics of a weighted portfolio" }
func (*analyzeCmd) Usage() string {
	return `analyze -tickers AAPL,KO -weights 0.6,0.4 [-benchmark SPY] [-compare QQQ,EEM] [-years 3]

  Prints annualized return, volatility, Sharpe and beta per asset and for
  the portfolio, followed by highly correlated pairs.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *analyzeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	result, err := container.OptimizerService.Analyze(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printAnalysis(os.Stdout, result)
	return subcommands.ExitSuccess
}

type optimizeCmd struct {
	requestFlags
	minWeight   float64
	target      float64
	simulations int
	seed        uint64
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "search for max Sharpe and min volatility weights" }
func (*optimizeCmd) Usage() string {
	return `optimize -tickers AAPL,KO,MELI [-weights ...] [-min-weight 0.05] [-target 0.12] [-simulations 10000] [-seed 42]

  Runs a Monte Carlo search over long-only weights and prints the notable
  portfolios. A fixed -seed reproduces the same result.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.Float64Var(&c.minWeight, "min-weight", 0, "Minimum weight per asset")
	f.Float64Var(&c.target, "target", -1, "Target annual return, negative to skip")
	f.IntVar(&c.simulations, "simulations", 0, "Number of random portfolios, 0 for the default")
	f.Uint64Var(&c.seed, "seed", 0, "Random seed, 0 for a fresh one")
}

func (c *optimizeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	req.MinWeight = c.minWeight
	req.Simulations = c.simulations
	req.Seed = c.seed
	if c.target >= 0 {
		target := c.target
		req.TargetReturn = &target
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	result, err := container.OptimizerService.Optimize(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printAnalysis(os.Stdout, &result.AnalysisResult)
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PORTFOLIO\tRETURN\tVOLATILITY\tSHARPE\tWEIGHTS")
	printPoint(w, "current", result.Current)
	printPoint(w, "max sharpe", &result.MaxSharpe)
	printPoint(w, "min volatility", &result.MinVolatility)
	printPoint(w, "target", result.TargetReturn)
	w.Flush()
	fmt.Printf("\n%d simulations, seed %d, %d frontier points\n", result.Simulations, result.Seed, len(result.Frontier))
	return subcommands.ExitSuccess
}

func printAnalysis(out io.Writer, r *optimization.AnalysisResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tWEIGHT\tRETURN\tVOLATILITY\tSHARPE\tCAGR\t12M\tBETA")
	for _, a := range r.Assets {
		printMetrics(w, a.Ticker, formatPct(a.Weight*100), a.Metrics)
	}
	printMetrics(w, "portfolio", "", r.Portfolio)
	printMetrics(w, r.Benchmark.Ticker, "", r.Benchmark.Metrics)
	for _, b := range r.Comparisons {
		printMetrics(w, b.Ticker, "", b.Metrics)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d trading days\n", r.TradingDays)
	for _, p := range r.HighCorrelations {
		fmt.Fprintf(out, "high correlation: %s/%s %.2f\n", p.TickerA, p.TickerB, p.Correlation)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
}

func printMetrics(w io.Writer, name, weight string, m optimization.Metrics) {
	beta := "-"
	if m.Beta != nil {
		beta = fmt.Sprintf("%.2f", *m.Beta)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
		name, weight,
		formatPct(m.AnnualReturn*100), formatPct(m.Volatility*100), m.Sharpe,
		formatPct(m.CAGR*100), formatPct(m.Trailing12M*100), beta)
}

func printPoint(w io.Writer, label string, p *optimization.PortfolioPoint) {
	if p == nil {
		return
	}
	tickers := make([]string, 0, len(p.Weights))
	for t := range p.Weights {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	weights := ""
	for i, t := range tickers {
		if i > 0 {
			weights += " "
		}
		weights += fmt.Sprintf("%s=%.1f%%", t, p.Weights[t]*100)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
		label, formatPct(p.Return*100), formatPct(p.Volatility*100), p.Sharpe, weights)
}
