package market

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
	"github.com/civio/civio-api/internal/pkg/validator"
)

// Handler handles market HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates market handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(r *http.Request) authz.Actor {
	return authz.Actor{
		ID:   middleware.GetAccountID(r.Context()),
		Role: middleware.GetRole(r.Context()),
	}
}

// CreateItem handles POST /market/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	item, err := h.service.CreateItem(r.Context(), actorFrom(r), &req)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "Only admins can manage market items")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, item)
}

// UpdateItem handles PUT /market/items/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		switch err {
		case ErrItemNotFound:
			response.NotFound(w, "Item not found")
		case ErrForbidden:
			response.Forbidden(w, "Only admins can manage market items")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, item)
}

// ListItems handles GET /market/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.service.ListItems(r.Context(), actorFrom(r), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// GetItem handles GET /market/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		switch err {
		case ErrItemNotFound:
			response.NotFound(w, "Item not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, item)
}

// Purchase handles POST /market/items/{id}/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	order, err := h.service.Purchase(r.Context(), middleware.GetAccountID(r.Context()), id)
	if err != nil {
		switch err {
		case ErrItemNotFound:
			response.NotFound(w, "Item not found")
		case ErrItemUnavailable:
			response.BadRequest(w, "Item is not available")
		case ErrOutOfStock:
			response.Conflict(w, "Item is out of stock")
		case ledger.ErrInsufficientBalance:
			response.Conflict(w, "Not enough points for this purchase")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, order)
}

// CancelOrder handles POST /market/orders/{id}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	order, err := h.service.CancelOrder(r.Context(), actorFrom(r), id)
	if err != nil {
		switch err {
		case ErrOrderNotFound:
			response.NotFound(w, "Order not found")
		case ErrNotOrderOwner:
			response.Forbidden(w, "Order belongs to another member")
		case ErrOrderNotCancellable:
			response.Conflict(w, "Order cannot be cancelled")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, order)
}

// MyOrders handles GET /market/orders/my
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.service.MyOrders(r.Context(), middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, orders)
}
