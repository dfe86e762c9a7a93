package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartera-ar/cartera/internal/clients/yahoo"
	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TickerLister lists the tickers held by any user
type TickerLister interface {
	ListTickers(ctx context.Context) ([]string, error)
}

// QuoteSource returns the latest quote of a market symbol
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (yahoo.Quote, error)
}

// RateSource returns an ARS per USD exchange rate
type RateSource interface {
	GetRate(ctx context.Context, casa string) (decimal.Decimal, error)
}

// BYMASymbol returns the Buenos Aires market symbol of a CEDEAR ticker.
// Share-class dots are dropped, so BRK.B trades as BRKB.BA.
func BYMASymbol(ticker string) string {
	return strings.ReplaceAll(domain.NormalizeTicker(ticker), ".", "") + ".BA"
}

// PriceRefreshJob stores the current ARS quote and MEP rate of every held ticker
type PriceRefreshJob struct {
	tickers TickerLister
	quotes  QuoteSource
	rates   RateSource
	prices  domain.PriceStore
	casa    string
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job. casa selects the
// dolarapi rate, "bolsa" being the MEP dollar.
func NewPriceRefreshJob(tickers TickerLister, quotes QuoteSource, rates RateSource, prices domain.PriceStore, casa string, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		tickers: tickers,
		quotes:  quotes,
		rates:   rates,
		prices:  prices,
		casa:    casa,
		timeout: 5 * time.Minute,
		now:     time.Now,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run executes the price refresh job. A ticker whose quote cannot be fetched
// keeps its previous price.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tickers, err := j.tickers.ListTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.log.Debug().Msg("No tickers held, nothing to refresh")
		return nil
	}

	rate, err := j.rates.GetRate(ctx, j.casa)
	if err != nil {
		return fmt.Errorf("failed to get %s rate: %w", j.casa, err)
	}

	updated, failed := 0, 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		symbol := BYMASymbol(ticker)
		quote, err := j.quotes.GetQuote(ctx, symbol)
		if err != nil || quote.Price <= 0 {
			failed++
			j.log.Warn().Err(err).Str("ticker", ticker).Str("symbol", symbol).Msg("Failed to fetch quote, skipping")
			continue
		}

		price := domain.CurrentPrice{
			Ticker:    domain.NormalizeTicker(ticker),
			PriceARS:  decimal.NewFromFloat(quote.Price).Round(2),
			USDRate:   rate,
			UpdatedAt: j.now().UTC(),
		}
		if err := j.prices.Upsert(ctx, price); err != nil {
			failed++
			j.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store price")
			continue
		}
		updated++
	}

	j.log.Info().
		Int("updated", updated).
		Int("failed", failed).
		Str("usd_rate", rate.String()).
		Msg("Prices refreshed")
	return nil
}
