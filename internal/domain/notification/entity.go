package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind represents notification kind
type Kind string

const (
	KindTaskApproved  Kind = "task_approved"  // Assignee: submission approved, points awarded
	KindTaskRejected  Kind = "task_rejected"  // Assignee: submission rejected
	KindTaskSubmitted Kind = "task_submitted" // Reviewer pool: new submission pending
	KindPointsAwarded Kind = "points_awarded" // Member: balance credited
	KindNewRecruit    Kind = "new_recruit"    // Recruiter: someone registered with their referral
	KindOrderPlaced   Kind = "order_placed"   // Member: marketplace order confirmed
	KindEventCheckIn  Kind = "event_check_in" // Member: event attendance recorded
)

// Notification represents a member notification
type Notification struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	RecipientID uuid.UUID      `db:"recipient_id" json:"recipient_id"`
	Kind        Kind           `db:"kind" json:"kind"`
	Title       string         `db:"title" json:"title"`
	Message     sql.NullString `db:"message" json:"message,omitempty"`
	IsRead      bool           `db:"is_read" json:"is_read"`
	ReadAt      sql.NullTime   `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
