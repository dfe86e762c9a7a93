package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the optimizer routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/optimize", h.HandleOptimize)
	})
}
