package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
)
