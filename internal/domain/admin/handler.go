package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/audit"
	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
	"github.com/civio/civio-api/internal/pkg/validator"
)

// Handler handles admin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(r *http.Request) authz.Actor {
	return authz.Actor{
		ID:   middleware.GetAccountID(r.Context()),
		Role: middleware.GetRole(r.Context()),
	}
}

// AdjustPoints handles POST /admin/members/{id}/points
func (h *Handler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	var req AdjustPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	entry, err := h.service.AdjustPoints(r.Context(), actorFrom(r), targetID, req.Amount, req.Reason)
	if err != nil {
		switch err {
		case ErrZeroAmount:
			response.BadRequest(w, "Adjustment amount cannot be zero")
		case ErrForbidden:
			response.Forbidden(w, "Member is outside your scope")
		case member.ErrAccountNotFound, ledger.ErrAccountNotFound:
			response.NotFound(w, "Member not found")
		case ledger.ErrInsufficientBalance:
			response.Conflict(w, "Adjustment would make the balance negative")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, entry)
}

// ChangeRole handles PUT /admin/members/{id}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	account, err := h.service.ChangeRole(r.Context(), actorFrom(r), targetID, member.Role(req.Role))
	if err != nil {
		switch err {
		case ErrInvalidRole:
			response.BadRequest(w, "Unknown role")
		case ErrSelfTargeting:
			response.BadRequest(w, "You cannot change your own role")
		case ErrForbidden:
			response.Forbidden(w, "Member is outside your scope")
		case member.ErrAccountNotFound:
			response.NotFound(w, "Member not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, account)
}

// Deactivate handles POST /admin/members/{id}/deactivate
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	if err := h.service.Deactivate(r.Context(), actorFrom(r), targetID); err != nil {
		switch err {
		case ErrSelfTargeting:
			response.BadRequest(w, "You cannot deactivate your own account")
		case ErrForbidden:
			response.Forbidden(w, "Member is outside your scope")
		case member.ErrAccountNotFound:
			response.NotFound(w, "Member not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Impersonate handles POST /admin/members/{id}/impersonate
func (h *Handler) Impersonate(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	token, err := h.service.Impersonate(r.Context(), actorFrom(r), targetID)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "Only a super admin can impersonate members")
		case member.ErrAccountNotFound:
			response.NotFound(w, "Member not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ImpersonateResponse{AccessToken: token})
}

// ListAuditLog handles GET /admin/audit
func (h *Handler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Limit:  50,
		Offset: 0,
	}

	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 200 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		filter.Offset = v
	}
	if v := q.Get("actor_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ActorID = &id
		}
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := q.Get("entity_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.EntityID = &id
		}
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.FromDate = &ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.ToDate = &ts
		}
	}

	entries, total, err := h.service.ListAuditLog(r.Context(), actorFrom(r), filter)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "Audit log requires admin access")
		default:
			response.InternalError(w)
		}
		return
	}

	response.WithMeta(w, entries, response.Meta{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// DashboardStats handles GET /admin/stats
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context(), actorFrom(r))
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "Dashboard requires admin access")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, stats)
}
