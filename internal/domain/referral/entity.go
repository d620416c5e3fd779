package referral

import (
	"time"

	"github.com/google/uuid"
)

// Edge is a directed recruitment edge (matches referral_edges table).
// Created once at registration when a recruiter is known, never mutated.
// Edges form a forest: each member has at most one parent and no cycles.
type Edge struct {
	ChildID   uuid.UUID `db:"child_id" json:"child_id"`
	ParentID  uuid.UUID `db:"parent_id" json:"parent_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
