package task

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents task status (matches task_status enum)
type Status string

const (
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// SubmissionStatus represents submission status
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Task is a unit of work that earns points on approval (matches tasks table)
type Task struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   sql.NullString `db:"description" json:"description,omitempty"`
	Points        int64          `db:"points" json:"points"`
	Status        Status         `db:"status" json:"status"`
	RequiresProof bool           `db:"requires_proof" json:"requires_proof"`
	AssigneeID    uuid.NullUUID  `db:"assignee_id" json:"assignee_id,omitempty"`
	CreatedBy     uuid.UUID      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the task reached a terminal state
// IsValid reports whether s is a known task status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPendingReview, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

// CanBeCancelled reports whether an admin may still cancel the task
func (t *Task) CanBeCancelled() bool {
	return t.Status == StatusOpen || t.Status == StatusInProgress
}

// Submission is one attempt to close a task. A task has at most one pending
// submission at a time; the decision is recorded on the row, never rewritten.
type Submission struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	TaskID        uuid.UUID        `db:"task_id" json:"task_id"`
	SubmittedBy   uuid.UUID        `db:"submitted_by" json:"submitted_by"`
	Status        SubmissionStatus `db:"status" json:"status"`
	Proof         sql.NullString   `db:"proof" json:"proof,omitempty"`
	PointsAwarded sql.NullInt64    `db:"points_awarded" json:"points_awarded,omitempty"`
	ReviewedBy    uuid.NullUUID    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	Feedback      sql.NullString   `db:"feedback" json:"feedback,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ReviewedAt    sql.NullTime     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
