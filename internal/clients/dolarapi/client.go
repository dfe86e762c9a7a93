// Package dolarapi fetches Argentine peso dollar quotes from dolarapi.com.
package dolarapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the public dolarapi endpoint
	DefaultBaseURL = "https://dolarapi.com/v1/dolares"
	// CasaMEP is the "bolsa" (MEP) dollar used to value CEDEARs
	CasaMEP = "bolsa"

	freshFor = 10 * time.Minute
)

// Quote is one dollar quote
type Quote struct {
	Casa      string          `json:"casa"`
	Name      string          `json:"nombre"`
	Buy       decimal.Decimal `json:"compra"`
	Sell      decimal.Decimal `json:"venta"`
	UpdatedAt time.Time       `json:"fechaActualizacion"`
}

// Client for dolarapi.com
type Client struct {
	baseURL string
	client  *http.Client
	fresh   *cache.Cache
	stale   *cache.Cache
	log     zerolog.Logger
}

// NewClient creates a new dolarapi client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		fresh:   cache.New(freshFor, 2*freshFor),
		stale:   cache.New(cache.NoExpiration, 0),
		log:     log.With().Str("client", "dolarapi").Logger(),
	}
}

// GetQuote fetches the quote of a casa (e.g. "bolsa", "blue", "oficial").
// If the API fails, the last good quote is returned when one is known.
func (c *Client) GetQuote(ctx context.Context, casa string) (Quote, error) {
	if q, ok := c.fresh.Get(casa); ok {
		return q.(Quote), nil
	}

	q, err := c.fetch(ctx, casa)
	if err != nil {
		if last, ok := c.stale.Get(casa); ok {
			c.log.Warn().Err(err).Str("casa", casa).Msg("API failed, using stale quote")
			return last.(Quote), nil
		}
		return Quote{}, err
	}

	c.fresh.SetDefault(casa, q)
	c.stale.SetDefault(casa, q)

	c.log.Info().
		Str("casa", casa).
		Str("venta", q.Sell.String()).
		Msg("Fetched dollar quote")
	return q, nil
}

// GetRate returns the sell price of a casa, the rate used to convert ARS to USD.
func (c *Client) GetRate(ctx context.Context, casa string) (decimal.Decimal, error) {
	q, err := c.GetQuote(ctx, casa)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Sell, nil
}

func (c *Client) fetch(ctx context.Context, casa string) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+casa, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if !q.Sell.IsPositive() {
		return Quote{}, fmt.Errorf("quote for %s has no sell price", casa)
	}
	return q, nil
}
