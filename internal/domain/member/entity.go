package member

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a member role (matches member_role enum).
// Roles are ordered: a higher level implies broader access.
type Role string

const (
	RoleViewer         Role = "viewer"
	RoleProspect       Role = "prospect"
	RoleMember         Role = "member"
	RoleGroupLeader    Role = "group_leader"
	RoleRegionalLeader Role = "regional_leader"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super_admin"
)

// roleLevels defines role ordering (higher = broader access)
var roleLevels = map[Role]int{
	RoleViewer:         10,
	RoleProspect:       20,
	RoleMember:         30,
	RoleGroupLeader:    40,
	RoleRegionalLeader: 50,
	RoleAdmin:          80,
	RoleSuperAdmin:     100,
}

// Level returns the numeric level of the role, 0 for unknown roles
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether the role is at or above the given role's level
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// IsAdmin reports whether the role is admin or super_admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsValid reports whether the role is a known role
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Account represents a member's points-bearing identity (matches accounts table).
// The balance is materialized from ledger entries and is never written directly
// outside the ledger repository. Accounts are deactivated, never deleted.
type Account struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Role         Role      `db:"role"`
	Balance      int64     `db:"balance"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
