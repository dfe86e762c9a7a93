package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cartera-ar/cartera/internal/modules/optimization"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptimizer struct {
	lastReq optimization.Request
	err     error
}

func (f *fakeOptimizer) Analyze(_ context.Context, req optimization.Request) (*optimization.AnalysisResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &optimization.AnalysisResult{Tickers: req.Tickers, TradingDays: 250}, nil
}

func (f *fakeOptimizer) Optimize(_ context.Context, req optimization.Request) (*optimization.OptimizationResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &optimization.OptimizationResult{
		AnalysisResult: optimization.AnalysisResult{Tickers: req.Tickers},
		Simulations:    req.Simulations,
		Seed:           req.Seed,
	}, nil
}

func newRouter(opt *fakeOptimizer) chi.Router {
	r := chi.NewRouter()
	NewHandler(opt, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func TestHandleAnalyze_DecodesRequest(t *testing.T) {
	opt := &fakeOptimizer{}
	body := `{"tickers":["AAPL","KO"],"weights":[0.6,0.4],"benchmark":"SPY","comparison_benchmarks":["QQQ"],"lookback_years":2}`

	rec := httptest.NewRecorder()
	newRouter(opt).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimizer/analyze", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AAPL", "KO"}, opt.lastReq.Tickers)
	assert.Equal(t, []float64{0.6, 0.4}, opt.lastReq.Weights)
	assert.Equal(t, []string{"QQQ"}, opt.lastReq.Comparisons)
	assert.Equal(t, 2, opt.lastReq.LookbackYears)

	var got optimization.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 250, got.TradingDays)
}

func TestHandleOptimize_EchoesSeed(t *testing.T) {
	opt := &fakeOptimizer{}
	body := `{"tickers":["AAPL","KO"],"benchmark":"SPY","simulations":500,"seed":42}`

	rec := httptest.NewRecorder()
	newRouter(opt).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimizer/optimize", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(42), got["seed"])
	assert.Equal(t, float64(500), got["simulations"])
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid weights", fmt.Errorf("%w: sum", optimization.ErrInvalidWeights), http.StatusBadRequest},
		{"invalid request", optimization.ErrInvalidRequest, http.StatusBadRequest},
		{"insufficient data", optimization.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"missing series", fmt.Errorf("%w: XYZ", optimization.ErrMissingSeries), http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/optimizer/analyze", strings.NewReader(`{"tickers":["AAPL"]}`))
			newRouter(&fakeOptimizer{err: tt.err}).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandlers_MalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeOptimizer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimizer/optimize", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
