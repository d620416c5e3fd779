package auth

import "errors"

var (
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountInactive      = errors.New("account is deactivated")
	ErrAccountNotFound      = errors.New("account not found")
	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
)
