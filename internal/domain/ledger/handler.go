package ledger

import (
	"net/http"
	"strconv"

	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
)

// Handler handles points HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates ledger handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetBalance handles GET /points/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	balance, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int64{"balance": balance})
}

// History handles GET /points/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

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

	entries, err := h.svc.History(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"items": entries})
}
