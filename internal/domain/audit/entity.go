package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry represents one administrative mutation (matches audit_log table).
// Append-only; the engine writes entries and never reads them back, the
// listing surface exists for external reporting.
type Entry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.NullUUID   `db:"entity_id" json:"entity_id,omitempty"`
	OldData    json.RawMessage `db:"old_data" json:"old_data,omitempty"`
	NewData    json.RawMessage `db:"new_data" json:"new_data,omitempty"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Filter for listing audit entries
type Filter struct {
	ActorID    *uuid.UUID
	Action     *string
	EntityType *string
	EntityID   *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
