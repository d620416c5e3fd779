package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns event router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/check-in", h.CheckIn)
	r.Get("/{id}/attendance", h.Attendance)

	return r
}
