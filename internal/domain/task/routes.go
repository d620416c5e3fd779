package task

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns task router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/claim", h.Claim)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/cancel", h.Cancel)
	r.Delete("/{id}", h.Delete)

	return r
}

// SubmissionRoutes returns submission review router
func (h *Handler) SubmissionRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Post("/{id}/review", h.Review)

	return r
}
