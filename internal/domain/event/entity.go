package event

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is an organized gathering members can attend. Checking in at a
// running event earns the event's points.
type Event struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	Location    string         `db:"location" json:"location"`
	Points      int64          `db:"points" json:"points"`
	StartsAt    time.Time      `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time      `db:"ends_at" json:"ends_at"`
	OrganizerID uuid.UUID      `db:"organizer_id" json:"organizer_id"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// IsRunning reports whether now falls inside the event window
func (e *Event) IsRunning(now time.Time) bool {
	return !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

// CheckIn records one member's attendance at one event
type CheckIn struct {
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
