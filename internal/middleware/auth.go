package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/pkg/jwt"
	"github.com/civio/civio-api/internal/pkg/response"
)

type contextKey string

const (
	AccountIDKey contextKey = "account_id"
	RoleKey      contextKey = "role"
)

// Auth returns middleware that validates JWT
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, RoleKey, member.Role(claims.Role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountID extracts the caller's account ID from context
func GetAccountID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(AccountIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRole extracts the caller's role from context
func GetRole(ctx context.Context) member.Role {
	if role, ok := ctx.Value(RoleKey).(member.Role); ok {
		return role
	}
	return member.RoleViewer
}

// RequireRole returns middleware that rejects callers below the given role level
func RequireRole(min member.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetRole(r.Context()).AtLeast(min) {
				response.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that requires admin role or above
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(member.RoleAdmin)
}
