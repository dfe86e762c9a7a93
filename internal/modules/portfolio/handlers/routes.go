package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.HandleListTransactions)
			r.Post("/", h.HandleCreateTransaction)
			r.Delete("/{id}", h.HandleDeleteTransaction)
		})

		r.Get("/summary", h.HandleGetSummary)
		r.Get("/positions", h.HandleGetPositions)
		r.Get("/closed-operations", h.HandleGetClosedOperations)
	})
}
