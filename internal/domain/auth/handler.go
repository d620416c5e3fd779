package auth

import (
	"encoding/json"
	"net/http"

	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/response"
	"github.com/civio/civio-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			response.Conflict(w, "Email is already registered")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, resp)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		case ErrAccountInactive:
			response.Forbidden(w, "Account is deactivated")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, resp)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case ErrRefreshTokenRequired, ErrInvalidRefreshToken:
			response.Unauthorized(w, "Invalid refresh token")
		case ErrAccountNotFound:
			response.Unauthorized(w, "Account no longer exists")
		case ErrAccountInactive:
			response.Forbidden(w, "Account is deactivated")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, resp)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = LogoutRequest{}
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetCurrentAccount(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		switch err {
		case ErrAccountNotFound:
			response.NotFound(w, "Account not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, resp)
}
