package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns points routes for the member dashboard
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Get("/balance", h.GetBalance)
	r.Get("/history", h.History)

	return r
}
