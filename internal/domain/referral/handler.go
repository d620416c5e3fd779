package referral

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
)

// Handler handles referral HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates referral handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MyRecruits handles GET /referrals/recruits
func (h *Handler) MyRecruits(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	direct, err := h.svc.Children(r.Context(), accountID)
	if err != nil {
		response.InternalError(w)
		return
	}

	descendants, err := h.svc.Descendants(r.Context(), accountID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"direct":       direct,
		"total_recruits": len(descendants),
	})
}

// Subtree handles GET /referrals/{id}/subtree (admin reporting)
func (h *Handler) Subtree(w http.ResponseWriter, r *http.Request) {
	rootID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid account ID")
		return
	}

	descendants, err := h.svc.Descendants(r.Context(), rootID)
	if err != nil {
		response.InternalError(w)
		return
	}

	ids := make([]uuid.UUID, 0, len(descendants))
	for id := range descendants {
		ids = append(ids, id)
	}

	response.OK(w, map[string]interface{}{"descendants": ids})
}

// Routes returns referral routes
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Get("/recruits", h.MyRecruits)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/{id}/subtree", h.Subtree)
	})

	return r
}
