package admin

import "errors"

var (
	ErrForbidden     = errors.New("action outside your scope")
	ErrInvalidRole   = errors.New("invalid role")
	ErrSelfTargeting = errors.New("cannot target your own account")
	ErrZeroAmount    = errors.New("adjustment amount cannot be zero")
)
