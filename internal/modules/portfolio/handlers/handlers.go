// Package handlers provides HTTP handlers for transactions and portfolio views.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/cartera-ar/cartera/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionService is the transaction API used by the handlers
type TransactionService interface {
	Create(ctx context.Context, userID string, in portfolio.TransactionInput) (domain.Transaction, error)
	List(ctx context.Context, userID string) ([]domain.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// PortfolioService is the read API used by the handlers
type PortfolioService interface {
	GetSummary(ctx context.Context, userID string) (*portfolio.PortfolioSummary, error)
	GetPositions(ctx context.Context, userID string) ([]portfolio.Position, error)
	GetClosedOperations(ctx context.Context, userID string) ([]portfolio.ClosedOperation, error)
}

// Handler handles portfolio HTTP requests
type Handler struct {
	transactions TransactionService
	portfolio    PortfolioService
	sanitizer    *bluemonday.Policy
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(transactions TransactionService, portfolio PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		transactions: transactions,
		portfolio:    portfolio,
		sanitizer:    bluemonday.StrictPolicy(),
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// createTransactionRequest is the body of POST /transactions
type createTransactionRequest struct {
	Fecha     string          `json:"fecha"`
	Tipo      string          `json:"tipo"`
	Ticker    string          `json:"ticker"`
	PrecioARS decimal.Decimal `json:"precio_ars"`
	Cantidad  int64           `json:"cantidad"`
	USDRate   decimal.Decimal `json:"usd_rate_historico"`
	Categoria string          `json:"categoria"`
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	// Timestamps keep the calendar day of their own offset.
	return time.Parse(time.RFC3339, s)
}

// HandleCreateTransaction records a buy or sell
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Fecha)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "fecha must be YYYY-MM-DD")
		return
	}

	tx, err := h.transactions.Create(r.Context(), userID, portfolio.TransactionInput{
		Date:     date,
		Type:     domain.TransactionType(strings.ToLower(strings.TrimSpace(req.Tipo))),
		Ticker:   h.sanitizer.Sanitize(req.Ticker),
		PriceARS: req.PrecioARS,
		Quantity: req.Cantidad,
		USDRate:  req.USDRate,
		Category: strings.TrimSpace(h.sanitizer.Sanitize(req.Categoria)),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, tx)
}

// HandleListTransactions returns a user's transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.List(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// HandleDeleteTransaction removes a transaction
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := h.transactions.Delete(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSummary returns the portfolio summary, or null for a user without transactions
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.GetSummary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// HandleGetPositions returns open positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolio.GetPositions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if positions == nil {
		positions = []portfolio.Position{}
	}
	h.writeJSON(w, http.StatusOK, positions)
}

// HandleGetClosedOperations returns FIFO-matched closed operations
func (h *Handler) HandleGetClosedOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := h.portfolio.GetClosedOperations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if ops == nil {
		ops = []portfolio.ClosedOperation{}
	}
	h.writeJSON(w, http.StatusOK, ops)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidQuantity),
		errors.Is(err, portfolio.ErrInvalidPrice),
		errors.Is(err, portfolio.ErrInvalidRate),
		errors.Is(err, portfolio.ErrInvalidType),
		errors.Is(err, portfolio.ErrMissingTicker),
		errors.Is(err, portfolio.ErrMissingDate):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, portfolio.ErrOverSell):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, portfolio.ErrTransactionNotFound), errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Portfolio request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
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
