package notification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates notification handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recipientID := middleware.GetAccountID(r.Context())

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	notifications, err := h.svc.List(r.Context(), recipientID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"items": notifications})
}

// UnreadCount handles GET /notifications/unread
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	recipientID := middleware.GetAccountID(r.Context())

	count, err := h.svc.UnreadCount(r.Context(), recipientID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int{"unread": count})
}

// MarkAsRead handles POST /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	recipientID := middleware.GetAccountID(r.Context())
	if err := h.svc.MarkAsRead(r.Context(), id, recipientID); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "read"})
}

// MarkAllAsRead handles POST /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	recipientID := middleware.GetAccountID(r.Context())

	if err := h.svc.MarkAllAsRead(r.Context(), recipientID); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "read"})
}

// Routes returns notification routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Get("/", h.List)
	r.Get("/unread", h.UnreadCount)
	r.Post("/read-all", h.MarkAllAsRead)
	r.Post("/{id}/read", h.MarkAsRead)

	return r
}
