// Package yahoo reads daily price series and quotes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// ErrNoData is returned when Yahoo answers without a usable series.
var ErrNoData = errors.New("no data returned")

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client allowing requestsPerSecond
// requests with a small burst.
func NewClient(requestsPerSecond float64, log zerolog.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 4),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// WithBaseURL points the client at another chart endpoint. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// chartResponse is the subset of the v8 chart payload we read.
// Yahoo returns null for missing bars, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + url.PathEscape(symbol) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Yahoo Finance API returned status %d for %s", resp.StatusCode, symbol)
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error for %s: %s", symbol, result.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo Finance API returned status %d for %s", resp.StatusCode, symbol)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return &result, nil
}

// GetHistoricalPrices fetches daily closes of symbol between from and to,
// oldest first. Bars with a null close are skipped. AdjClose falls back to
// Close when Yahoo omits it.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.HistoricalPrice, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	chart := result.Chart.Result[0]
	if len(chart.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	closes := chart.Indicators.Quote[0].Close

	var adjCloses []*float64
	if len(chart.Indicators.AdjClose) > 0 {
		adjCloses = chart.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]domain.HistoricalPrice, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		adj := *closes[i]
		if i < len(adjCloses) && adjCloses[i] != nil && *adjCloses[i] > 0 {
			adj = *adjCloses[i]
		}
		prices = append(prices, domain.HistoricalPrice{
			Date:     time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close:    *closes[i],
			AdjClose: adj,
		})
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("count", len(prices)).
		Msg("Fetched historical prices")
	return prices, nil
}

// Quote is the latest market price of a symbol.
type Quote struct {
	Symbol   string
	Currency string
	Price    float64
	Time     time.Time
}

// GetQuote returns the regular market price of symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return Quote{}, err
	}

	meta := result.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return Quote{
		Symbol:   symbol,
		Currency: meta.Currency,
		Price:    meta.RegularMarketPrice,
		Time:     time.Unix(meta.RegularMarketTime, 0).UTC(),
	}, nil
}
