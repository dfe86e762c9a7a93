package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/prices"
	testhelpers "github.com/cartera-ar/cartera/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) chi.Router {
	t.Helper()
	db := testhelpers.NewTestDB(t, "ledger")
	h := NewHandler(prices.NewRepository(db.Conn(), zerolog.Nop()), zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func TestPriceHandlers_UpsertThenList(t *testing.T) {
	router := setup(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/prices/aapl", strings.NewReader(`{"precio_ars":"15000","usd_rate":1100}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/prices/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot domain.PriceSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "AAPL", snapshot[0].Ticker)
	assert.Equal(t, "15000", snapshot[0].PriceARS.String())
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), snapshot[0].UpdatedAt)
}

func TestPriceHandlers_Errors(t *testing.T) {
	router := setup(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/prices/AAPL", strings.NewReader(`{"precio_ars":0,"usd_rate":1000}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/prices/AAPL", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/prices/MSFT", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
