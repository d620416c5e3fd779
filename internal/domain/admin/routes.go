package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns admin router. Scope checks live in the service layer;
// the leader floor here just keeps plain members out.
func (h *Handler) Routes(authMiddleware, leaderMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(leaderMiddleware)

	r.Post("/members/{id}/points", h.AdjustPoints)
	r.Put("/members/{id}/role", h.ChangeRole)
	r.Post("/members/{id}/deactivate", h.Deactivate)
	r.Post("/members/{id}/impersonate", h.Impersonate)
	r.Get("/audit", h.ListAuditLog)
	r.Get("/stats", h.DashboardStats)

	return r
}
