// Package handlers provides HTTP handlers for current prices.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles price HTTP requests
type Handler struct {
	store domain.PriceStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewHandler creates a new price handler
func NewHandler(store domain.PriceStore, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		now:   time.Now,
		log:   log.With().Str("handler", "prices").Logger(),
	}
}

// RegisterRoutes registers price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{ticker}", h.HandleGet)
		r.Put("/{ticker}", h.HandleUpsert)
	})
}

// HandleList returns every current price
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list prices")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if snapshot == nil {
		snapshot = domain.PriceSnapshot{}
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// HandleGet returns the price of one ticker
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.Context(), chi.URLParam(r, "ticker"))
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "price not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get price")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

type upsertRequest struct {
	PrecioARS decimal.Decimal `json:"precio_ars"`
	USDRate   decimal.Decimal `json:"usd_rate"`
}

// HandleUpsert manually sets the price of a ticker
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.PrecioARS.IsPositive() || !req.USDRate.IsPositive() {
		h.writeError(w, http.StatusBadRequest, "precio_ars and usd_rate must be greater than zero")
		return
	}

	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))
	p := domain.CurrentPrice{
		Ticker:    ticker,
		PriceARS:  req.PrecioARS,
		USDRate:   req.USDRate,
		UpdatedAt: h.now().UTC().Truncate(time.Second),
	}
	if err := h.store.Upsert(r.Context(), p); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store price")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.log.Info().Str("ticker", ticker).Str("precio_ars", p.PriceARS.String()).Msg("Price updated manually")
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
