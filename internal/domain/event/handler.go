package event

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
	"github.com/civio/civio-api/internal/pkg/validator"
)

// Handler handles event HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates event handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(r *http.Request) authz.Actor {
	return authz.Actor{
		ID:   middleware.GetAccountID(r.Context()),
		Role: middleware.GetRole(r.Context()),
	}
}

// Create handles POST /events
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	e, err := h.service.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "You cannot manage events")
		case ErrInvalidTimeWindow:
			response.BadRequest(w, "Event must end after it starts")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, e)
}

// List handles GET /events
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	events, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, events)
}

// Get handles GET /events/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	e, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		switch err {
		case ErrEventNotFound:
			response.NotFound(w, "Event not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, e)
}

// Update handles PUT /events/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	e, err := h.service.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		switch err {
		case ErrEventNotFound:
			response.NotFound(w, "Event not found")
		case ErrForbidden:
			response.Forbidden(w, "You cannot manage this event")
		case ErrInvalidTimeWindow:
			response.BadRequest(w, "Event must end after it starts")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, e)
}

// Delete handles DELETE /events/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	if err := h.service.Delete(r.Context(), actorFrom(r), id); err != nil {
		switch err {
		case ErrEventNotFound:
			response.NotFound(w, "Event not found")
		case ErrForbidden:
			response.Forbidden(w, "You cannot manage this event")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// CheckIn handles POST /events/{id}/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	e, err := h.service.CheckIn(r.Context(), id, middleware.GetAccountID(r.Context()))
	if err != nil {
		switch err {
		case ErrEventNotFound:
			response.NotFound(w, "Event not found")
		case ErrEventNotRunning:
			response.BadRequest(w, "Event is not currently running")
		case ErrAlreadyCheckedIn:
			response.Conflict(w, "You have already checked in to this event")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, e)
}

// Attendance handles GET /events/{id}/attendance
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	checkins, err := h.service.Attendance(r.Context(), actorFrom(r), id)
	if err != nil {
		switch err {
		case ErrEventNotFound:
			response.NotFound(w, "Event not found")
		case ErrForbidden:
			response.Forbidden(w, "You cannot view attendance for this event")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, checkins)
}
