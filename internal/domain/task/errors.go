package task

import "errors"

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyClaimed     = errors.New("task is already claimed")
	ErrNotAssignee        = errors.New("only the assignee can submit this task")
	ErrProofRequired      = errors.New("this task requires proof of completion")
	ErrNotSubmittable     = errors.New("task is not awaiting submission")
	ErrAlreadyReviewed    = errors.New("submission has already been reviewed")
	ErrNotCancellable     = errors.New("task can no longer be cancelled")
	ErrForbidden          = errors.New("not allowed to act on this task")
)
