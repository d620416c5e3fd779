package auth

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents registration data
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
	ReferrerID  string `json:"referrer_id" validate:"omitempty,uuid"`
}

// LoginRequest represents login data
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents refresh token data
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents logout data
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AccountResponse represents account data in auth responses
type AccountResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokensResponse represents issued tokens
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthResponse represents authentication result
type AuthResponse struct {
	Account AccountResponse `json:"account"`
	Tokens  TokensResponse  `json:"tokens"`
}
