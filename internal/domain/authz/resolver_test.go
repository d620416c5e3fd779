package authz_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/member"
)

// fakeGraph returns a fixed subtree per root and counts lookups
type fakeGraph struct {
	subtrees map[uuid.UUID]map[uuid.UUID]struct{}
	calls    int
}

func (f *fakeGraph) Descendants(_ context.Context, rootID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	f.calls++
	if sub, ok := f.subtrees[rootID]; ok {
		return sub, nil
	}
	return map[uuid.UUID]struct{}{}, nil
}

func TestRegionalLeaderScopedToSubtree(t *testing.T) {
	leader := uuid.New()
	inTree := uuid.New()
	outside := uuid.New()

	graph := &fakeGraph{subtrees: map[uuid.UUID]map[uuid.UUID]struct{}{
		leader: {inTree: {}},
	}}
	resolver := authz.NewResolver(graph)
	actor := authz.Actor{ID: leader, Role: member.RoleRegionalLeader}
	ctx := context.Background()

	ok, err := resolver.CanAct(ctx, actor, inTree, authz.ActionMemberAdjustPoints)
	if err != nil {
		t.Fatalf("can act failed: %v", err)
	}
	if !ok {
		t.Error("expected leader to act on a member in their subtree")
	}

	ok, err = resolver.CanAct(ctx, actor, outside, authz.ActionMemberAdjustPoints)
	if err != nil {
		t.Fatalf("can act failed: %v", err)
	}
	if ok {
		t.Error("expected leader to be denied on a member outside their subtree")
	}
}

func TestAdminAllowedExceptSuperAdminOnly(t *testing.T) {
	resolver := authz.NewResolver(&fakeGraph{})
	target := uuid.New()
	ctx := context.Background()

	admin := authz.Actor{ID: uuid.New(), Role: member.RoleAdmin}
	super := authz.Actor{ID: uuid.New(), Role: member.RoleSuperAdmin}

	for _, action := range []authz.Action{
		authz.ActionMemberAdjustPoints,
		authz.ActionMemberChangeRole,
		authz.ActionTaskReview,
		authz.ActionAuditView,
	} {
		ok, err := resolver.CanAct(ctx, admin, target, action)
		if err != nil || !ok {
			t.Errorf("expected admin allowed for %s, got ok=%v err=%v", action, ok, err)
		}
	}

	for _, action := range []authz.Action{
		authz.ActionTaskDelete,
		authz.ActionMemberImpersonate,
		authz.ActionVoteDeleteEmpty,
	} {
		ok, err := resolver.CanAct(ctx, admin, target, action)
		if err != nil {
			t.Fatalf("can act failed: %v", err)
		}
		if ok {
			t.Errorf("expected plain admin denied for %s", action)
		}

		ok, err = resolver.CanAct(ctx, super, target, action)
		if err != nil {
			t.Fatalf("can act failed: %v", err)
		}
		if !ok {
			t.Errorf("expected super_admin allowed for %s", action)
		}
	}
}

func TestNonLeaderRolesDenied(t *testing.T) {
	resolver := authz.NewResolver(&fakeGraph{})
	target := uuid.New()
	ctx := context.Background()

	for _, role := range []member.Role{
		member.RoleViewer,
		member.RoleProspect,
		member.RoleMember,
		member.RoleGroupLeader,
	} {
		actor := authz.Actor{ID: uuid.New(), Role: role}
		ok, err := resolver.CanAct(ctx, actor, target, authz.ActionMemberView)
		if err != nil {
			t.Fatalf("can act failed: %v", err)
		}
		if ok {
			t.Errorf("expected role %s denied administrative action", role)
		}
	}
}

func TestEntityOwnership(t *testing.T) {
	resolver := authz.NewResolver(&fakeGraph{})
	ctx := context.Background()

	leader := authz.Actor{ID: uuid.New(), Role: member.RoleRegionalLeader}

	ok, err := resolver.CanActOnEntity(ctx, leader, leader.ID, authz.ActionEventManage)
	if err != nil || !ok {
		t.Errorf("expected leader allowed on own entity, got ok=%v err=%v", ok, err)
	}

	ok, err = resolver.CanActOnEntity(ctx, leader, uuid.New(), authz.ActionEventManage)
	if err != nil {
		t.Fatalf("can act failed: %v", err)
	}
	if ok {
		t.Error("expected leader denied on someone else's entity")
	}
}

func TestScopeCachesWithinRequest(t *testing.T) {
	leader := uuid.New()
	inTree := uuid.New()

	graph := &fakeGraph{subtrees: map[uuid.UUID]map[uuid.UUID]struct{}{
		leader: {inTree: {}},
	}}
	scope := authz.NewScope(authz.NewResolver(graph))
	actor := authz.Actor{ID: leader, Role: member.RoleRegionalLeader}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := scope.CanAct(ctx, actor, inTree, authz.ActionMemberView)
		if err != nil || !ok {
			t.Fatalf("expected allowed, got ok=%v err=%v", ok, err)
		}
	}

	if graph.calls != 1 {
		t.Fatalf("expected a single subtree lookup per request, got %d", graph.calls)
	}
}
