package task

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

// Handler handles task HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates task handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(r *http.Request) authz.Actor {
	return authz.Actor{
		ID:   middleware.GetAccountID(r.Context()),
		Role: middleware.GetRole(r.Context()),
	}
}

// Create handles POST /tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	t, err := h.service.Create(r.Context(), actorFrom(r), req.Title, req.Description, req.Points, req.RequiresProof)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Forbidden(w, "You cannot manage tasks")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, t)
}

// List handles GET /tasks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := Status(s)
		if !st.IsValid() {
			response.BadRequest(w, "Invalid status filter")
			return
		}
		status = &st
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tasks, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, tasks)
}

// Get handles GET /tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		switch err {
		case ErrTaskNotFound:
			response.NotFound(w, "Task not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// Claim handles POST /tasks/{id}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	t, err := h.service.Claim(r.Context(), id, middleware.GetAccountID(r.Context()))
	if err != nil {
		switch err {
		case ErrTaskNotFound:
			response.NotFound(w, "Task not found")
		case ErrAlreadyClaimed:
			response.Conflict(w, "Task is no longer open")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// Submit handles POST /tasks/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body for tasks without proof
		req = SubmitRequest{}
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	sub, err := h.service.Submit(r.Context(), id, middleware.GetAccountID(r.Context()), req.Proof)
	if err != nil {
		switch err {
		case ErrTaskNotFound:
			response.NotFound(w, "Task not found")
		case ErrNotAssignee:
			response.Forbidden(w, "Task is not assigned to you")
		case ErrProofRequired:
			response.BadRequest(w, "This task requires proof of completion")
		case ErrNotSubmittable:
			response.Conflict(w, "Task cannot be submitted in its current state")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, sub)
}

// Review handles POST /submissions/{id}/review
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid submission ID")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	sub, err := h.service.Review(r.Context(), id, actorFrom(r), Decision(req.Decision), req.Feedback)
	if err != nil {
		switch err {
		case ErrSubmissionNotFound:
			response.NotFound(w, "Submission not found")
		case ErrAlreadyReviewed:
			response.Conflict(w, "Submission has already been reviewed")
		case ErrForbidden:
			response.Forbidden(w, "You cannot review this submission")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, sub)
}

// Cancel handles POST /tasks/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	if err := h.service.Cancel(r.Context(), id, actorFrom(r)); err != nil {
		switch err {
		case ErrTaskNotFound:
			response.NotFound(w, "Task not found")
		case ErrForbidden:
			response.Forbidden(w, "You cannot cancel this task")
		case ErrNotCancellable:
			response.Conflict(w, "Task cannot be cancelled in its current state")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /tasks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorFrom(r)); err != nil {
		switch err {
		case ErrTaskNotFound:
			response.NotFound(w, "Task not found")
		case ErrForbidden:
			response.Forbidden(w, "Only a super admin can delete tasks")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}
