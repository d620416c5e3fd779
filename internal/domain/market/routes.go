package market

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns market router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpdateItem)
		r.Post("/{id}/purchase", h.Purchase)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/my", h.MyOrders)
		r.Post("/{id}/cancel", h.CancelOrder)
	})

	return r
}
