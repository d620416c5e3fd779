package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/member"
)

// Actor is the authenticated caller a scope decision is made for
type Actor struct {
	ID   uuid.UUID
	Role member.Role
}

// DescendantSource answers referral subtree queries
type DescendantSource interface {
	Descendants(ctx context.Context, rootID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// Resolver decides whether an actor may perform an administrative action on
// a target account or entity. It is pure: it reads the referral graph and
// never writes anything. Callers check it before every mutation that
// crosses an ownership boundary.
type Resolver struct {
	graph DescendantSource
}

// NewResolver creates a scope resolver
func NewResolver(graph DescendantSource) *Resolver {
	return &Resolver{graph: graph}
}

// CanAct reports whether the actor may perform action on the target account.
// Policy, in order: admins are allowed everything except the super_admin
// allow-list; regional leaders are allowed iff the target is in their
// referral subtree; everyone else is denied.
func (r *Resolver) CanAct(ctx context.Context, actor Actor, targetAccountID uuid.UUID, action Action) (bool, error) {
	if actor.Role.IsAdmin() {
		if IsSuperAdminOnly(action) {
			return actor.Role == member.RoleSuperAdmin, nil
		}
		return true, nil
	}

	if actor.Role == member.RoleRegionalLeader {
		descendants, err := r.graph.Descendants(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		_, ok := descendants[targetAccountID]
		return ok, nil
	}

	return false, nil
}

// CanActOnEntity reports whether the actor may perform action on a non-member
// entity (event, task, news item) created by ownerID. Admin rules are the
// same as CanAct; regional leaders act on entities they own, not on their
// subtree.
func (r *Resolver) CanActOnEntity(_ context.Context, actor Actor, ownerID uuid.UUID, action Action) (bool, error) {
	if actor.Role.IsAdmin() {
		if IsSuperAdminOnly(action) {
			return actor.Role == member.RoleSuperAdmin, nil
		}
		return true, nil
	}

	if actor.Role == member.RoleRegionalLeader {
		return actor.ID == ownerID, nil
	}

	return false, nil
}

// CanAdminister reports whether the actor may perform a global action with no
// particular target (listing audit logs, managing the task catalog).
func (r *Resolver) CanAdminister(actor Actor, action Action) bool {
	if !actor.Role.IsAdmin() {
		return false
	}
	if IsSuperAdminOnly(action) {
		return actor.Role == member.RoleSuperAdmin
	}
	return true
}

// Scope memoizes subtree lookups for the duration of one request. Scopes
// must not outlive the request that created them: referrals and roles
// change, and a stale cache must never grant access.
type Scope struct {
	resolver *Resolver
	cached   map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewScope creates a per-request scope over the resolver
func NewScope(resolver *Resolver) *Scope {
	return &Scope{
		resolver: resolver,
		cached:   map[uuid.UUID]map[uuid.UUID]struct{}{},
	}
}

// CanAct is Resolver.CanAct with the actor's subtree cached per request
func (s *Scope) CanAct(ctx context.Context, actor Actor, targetAccountID uuid.UUID, action Action) (bool, error) {
	if actor.Role.IsAdmin() {
		return s.resolver.CanAct(ctx, actor, targetAccountID, action)
	}
	if actor.Role != member.RoleRegionalLeader {
		return false, nil
	}

	descendants, ok := s.cached[actor.ID]
	if !ok {
		var err error
		descendants, err = s.resolver.graph.Descendants(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		s.cached[actor.ID] = descendants
	}

	_, ok = descendants[targetAccountID]
	return ok, nil
}
