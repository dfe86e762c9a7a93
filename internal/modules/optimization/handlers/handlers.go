// Package handlers provides HTTP handlers for the portfolio optimizer.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cartera-ar/cartera/internal/modules/optimization"
	"github.com/rs/zerolog"
)

// Optimizer is the optimizer API used by the handlers
type Optimizer interface {
	Analyze(ctx context.Context, req optimization.Request) (*optimization.AnalysisResult, error)
	Optimize(ctx context.Context, req optimization.Request) (*optimization.OptimizationResult, error)
}

// Handler handles optimizer HTTP requests
type Handler struct {
	optimizer Optimizer
	log       zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(optimizer Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		optimizer: optimizer,
		log:       log.With().Str("handler", "optimizer").Logger(),
	}
}

// HandleAnalyze computes statistics for a weighted portfolio
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req optimization.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.optimizer.Analyze(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleOptimize runs the Monte-Carlo optimization
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimization.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, optimization.ErrInvalidRequest), errors.Is(err, optimization.ErrInvalidWeights):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, optimization.ErrInsufficientData):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, optimization.ErrMissingSeries):
		h.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		h.log.Error().Err(err).Msg("Optimizer request failed")
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
