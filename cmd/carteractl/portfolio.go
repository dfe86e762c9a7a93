package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/portfolio"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type summaryCmd struct {
	user string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the portfolio totals of a user" }
func (*summaryCmd) Usage() string {
	return `summary -user <id>

  Prints cost, value and realized and unrealized gains in ARS and USD.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	summary, err := container.PortfolioService.GetSummary(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading summary: %v\n", err)
		return subcommands.ExitFailure
	}

	printSummary(os.Stdout, summary)
	return subcommands.ExitSuccess
}

func printSummary(out io.Writer, s *portfolio.PortfolioSummary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\tARS\tUSD\t\n")
	rows := []struct {
		label    string
		ars, usd decimal.Decimal
	}{
		{"Cost", s.TotalCostARS, s.TotalCostUSD},
		{"Value", s.TotalValueARS, s.TotalValueUSD},
		{"Unrealized", s.TotalUnrealizedGainARS, s.TotalUnrealizedGainUSD},
		{"Realized", s.TotalRealizedGainARS, s.TotalRealizedGainUSD},
		{"Total gain", s.TotalGainARS, s.TotalGainUSD},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", r.label, formatARS(r.ars), formatUSD(r.usd))
	}
	w.Flush()
	fmt.Fprintf(out, "\nUSD rate: %s  positions: %d  closed operations: %d\n",
		s.USDRateActual.StringFixed(2), len(s.Positions), len(s.ClosedOperations))
}

type positionsCmd struct {
	user string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list the open positions of a user" }
func (*positionsCmd) Usage() string {
	return `positions -user <id>

  Lists open positions sorted by current value.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	positions, err := container.PortfolioService.GetPositions(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading positions: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tQTY\tAVG ARS\tPRICE ARS\tVALUE USD\tVAR ARS\tVAR USD\tWEIGHT\tDAYS")
	for _, p := range positions {
		price := "-"
		if p.HasPrice {
			price = formatARS(p.CurrentPriceARS)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			p.Ticker, p.Quantity,
			formatARS(p.AvgPriceARS), price, formatUSD(p.ValueUSD),
			formatPct(p.VariationARS), formatPct(p.VariationUSD), formatPct(p.PortfolioPct),
			p.AvgHoldingDays)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type closedCmd struct {
	user string
}

func (*closedCmd) Name() string     { return "closed" }
func (*closedCmd) Synopsis() string { return "list the closed operations of a user" }
func (*closedCmd) Usage() string {
	return `closed -user <id>

  Lists FIFO-matched sells with their realized gains.
`
}

func (c *closedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
}

func (c *closedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	ops, err := container.PortfolioService.GetClosedOperations(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading closed operations: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tQTY\tBOUGHT\tSOLD\tBUY ARS\tSELL ARS\tGAIN ARS\tGAIN USD\tDAYS")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			op.Ticker, op.Quantity,
			op.BuyDate.Format("2006-01-02"), op.SellDate.Format("2006-01-02"),
			formatARS(op.BuyPriceARS), formatARS(op.SellPriceARS),
			formatARS(op.GainARS), formatUSD(op.GainUSD),
			op.HoldingDays)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type addCmd struct {
	user     string
	ticker   string
	kind     string
	quantity int64
	price    string
	rate     string
	date     string
	category string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a buy or sell transaction" }
func (*addCmd) Usage() string {
	return `add -user <id> -ticker <ticker> -type compra|venta -qty <n> -price <ars> -rate <ars per usd> [-date YYYY-MM-DD] [-category <name>]

  Records a transaction. Sells larger than the open position are rejected.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id (required)")
	f.StringVar(&c.ticker, "ticker", "", "CEDEAR ticker (required)")
	f.StringVar(&c.kind, "type", string(domain.TransactionTypeBuy), "compra or venta")
	f.Int64Var(&c.quantity, "qty", 0, "Number of CEDEARs (required)")
	f.StringVar(&c.price, "price", "", "Price per CEDEAR in ARS (required)")
	f.StringVar(&c.rate, "rate", "", "ARS per USD rate on the trade date (required)")
	f.StringVar(&c.date, "date", "", "Trade date, defaults to today")
	f.StringVar(&c.category, "category", "", "Optional category")
}

func (c *addCmd) input(now time.Time) (portfolio.TransactionInput, error) {
	in := portfolio.TransactionInput{
		Ticker:   c.ticker,
		Type:     domain.TransactionType(c.kind),
		Quantity: c.quantity,
		Category: c.category,
		Date:     now.UTC().Truncate(24 * time.Hour),
	}
	if c.user == "" || c.ticker == "" {
		return in, fmt.Errorf("-user and -ticker are required")
	}

	var err error
	if in.PriceARS, err = decimal.NewFromString(c.price); err != nil {
		return in, fmt.Errorf("invalid -price %q", c.price)
	}
	if in.USDRate, err = decimal.NewFromString(c.rate); err != nil {
		return in, fmt.Errorf("invalid -rate %q", c.rate)
	}
	if c.date != "" {
		if in.Date, err = time.Parse("2006-01-02", c.date); err != nil {
			return in, fmt.Errorf("invalid -date %q", c.date)
		}
	}
	return in, nil
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.input(time.Now())
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

	tx, err := container.TransactionService.Create(ctx, c.user, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s %s %d %s @ %s (%s)\n", tx.ID, tx.Type, tx.Quantity, tx.Ticker,
		formatARS(tx.PriceARS), formatUSD(tx.TotalUSD))
	return subcommands.ExitSuccess
}
