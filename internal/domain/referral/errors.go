package referral

import "errors"

var (
	ErrSelfReferral    = errors.New("member cannot refer themselves")
	ErrAlreadyReferred = errors.New("member already has a recruiter")
	ErrCycleDetected   = errors.New("referral would create a cycle")
)
