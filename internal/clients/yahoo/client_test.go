package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"currency": "ARS", "symbol": "AAPL.BA", "regularMarketPrice": 15250.5, "regularMarketTime": 1709308800},
      "timestamp": [1704153600, 1704240000, 1704326400, 1704412800],
      "indicators": {
        "quote": [{"close": [100.0, null, 102.0, 104.0]}],
        "adjclose": [{"adjclose": [99.0, null, 101.0, null]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, status int, body string) (*Client, chan *url.URL) {
	t.Helper()
	requests := make(chan *url.URL, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case requests <- r.URL:
		default:
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(100, zerolog.Nop()).WithBaseURL(srv.URL + "/"), requests
}

func TestGetHistoricalPrices(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, chartFixture)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	prices, err := client.GetHistoricalPrices(context.Background(), "AAPL", from, to)
	require.NoError(t, err)

	u := <-requests
	assert.Equal(t, "/AAPL", u.Path)
	assert.Equal(t, "1d", u.Query().Get("interval"))
	assert.Equal(t, "1704067200", u.Query().Get("period1"))

	require.Len(t, prices, 3)
	assert.Equal(t, "2024-01-02", prices[0].Date)
	assert.Equal(t, 99.0, prices[0].AdjClose)
	assert.Equal(t, "2024-01-04", prices[1].Date)
	// Missing adjclose falls back to close.
	assert.Equal(t, 104.0, prices[2].AdjClose)
}

func TestGetHistoricalPrices_APIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound,
		`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)

	_, err := client.GetHistoricalPrices(context.Background(), "NOPE", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestGetHistoricalPrices_EmptyResult(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"chart":{"result":[],"error":null}}`)

	_, err := client.GetHistoricalPrices(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGetQuote(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, chartFixture)

	q, err := client.GetQuote(context.Background(), "AAPL.BA")
	require.NoError(t, err)
	assert.Equal(t, "/AAPL.BA", (<-requests).Path)
	assert.Equal(t, 15250.5, q.Price)
	assert.Equal(t, "ARS", q.Currency)
}

func TestClient_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, chartFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetQuote(ctx, "AAPL.BA")
	assert.Error(t, err)
}
