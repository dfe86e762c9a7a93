package optimization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cartera-ar/cartera/internal/modules/history"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// seriesFetcher loads adjusted-close series for many symbols concurrently.
// Every fetch is bounded by a timeout and retried with exponential backoff.
type seriesFetcher struct {
	provider    history.Provider
	timeout     time.Duration
	retries     int
	backoff     time.Duration
	concurrency int
	log         zerolog.Logger
}

// fetchAll fetches required and optional symbols. Any required failure fails
// the whole call; optional failures are returned in omitted.
func (f *seriesFetcher) fetchAll(ctx context.Context, required, optional []string, from, to time.Time) (map[string][]float64, []string, error) {
	var (
		mu      sync.Mutex
		series  = make(map[string][]float64, len(required)+len(optional))
		omitted []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	seen := make(map[string]bool)
	schedule := func(symbol string, isRequired bool) {
		if seen[symbol] {
			return
		}
		seen[symbol] = true

		g.Go(func() error {
			closes, err := f.fetch(gctx, symbol, from, to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isRequired {
					return fmt.Errorf("%w: %s: %v", ErrMissingSeries, symbol, err)
				}
				f.log.Warn().Err(err).Str("symbol", symbol).Msg("Optional benchmark unavailable, omitting")
				omitted = append(omitted, symbol)
				return nil
			}
			series[symbol] = closes
			return nil
		})
	}

	for _, s := range required {
		schedule(s, true)
	}
	for _, s := range optional {
		schedule(s, false)
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return series, omitted, nil
}

func (f *seriesFetcher) fetch(ctx context.Context, symbol string, from, to time.Time) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * f.backoff
			f.log.Debug().
				Err(lastErr).
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Retrying series fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		prices, err := f.provider.GetHistoricalPrices(attemptCtx, symbol, from, to)
		cancel()
		if err == nil {
			closes := make([]float64, 0, len(prices))
			for _, p := range prices {
				closes = append(closes, p.AdjClose)
			}
			return closes, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.Canceled) {
			break
		}
	}
	return nil, lastErr
}
