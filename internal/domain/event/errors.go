package event

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotRunning   = errors.New("event is not currently running")
	ErrAlreadyCheckedIn  = errors.New("already checked in to this event")
	ErrInvalidTimeWindow = errors.New("event must end after it starts")
	ErrForbidden         = errors.New("not allowed to manage this event")
)
