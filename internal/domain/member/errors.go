package member

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidRole     = errors.New("invalid role")
	ErrAccountInactive = errors.New("account is deactivated")
)
