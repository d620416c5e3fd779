package referral_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/referral"
)

// fakeRepository is an in-memory edge store
type fakeRepository struct {
	parents map[uuid.UUID]uuid.UUID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{parents: map[uuid.UUID]uuid.UUID{}}
}

func (f *fakeRepository) InsertEdge(_ context.Context, edge *referral.Edge) error {
	if _, ok := f.parents[edge.ChildID]; ok {
		return nil
	}
	f.parents[edge.ChildID] = edge.ParentID
	return nil
}

func (f *fakeRepository) ParentOf(_ context.Context, childID uuid.UUID) (uuid.UUID, bool, error) {
	parent, ok := f.parents[childID]
	return parent, ok, nil
}

func (f *fakeRepository) ChildrenOf(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var children []uuid.UUID
	for child, parent := range f.parents {
		if parent == parentID {
			children = append(children, child)
		}
	}
	return children, nil
}

func TestDescendantsTransitive(t *testing.T) {
	svc := referral.NewService(newFakeRepository())
	ctx := context.Background()

	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	// A recruited B, B recruited C; D is disjoint
	if err := svc.RecordReferral(ctx, b, a); err != nil {
		t.Fatalf("record A->B failed: %v", err)
	}
	if err := svc.RecordReferral(ctx, c, b); err != nil {
		t.Fatalf("record B->C failed: %v", err)
	}

	got, err := svc.Descendants(ctx, a)
	if err != nil {
		t.Fatalf("descendants failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 descendants of A, got %d", len(got))
	}
	if _, ok := got[b]; !ok {
		t.Error("expected B in descendants of A")
	}
	if _, ok := got[c]; !ok {
		t.Error("expected C in descendants of A")
	}
	if _, ok := got[d]; ok {
		t.Error("did not expect disjoint D in descendants of A")
	}

	leaf, err := svc.Descendants(ctx, c)
	if err != nil {
		t.Fatalf("descendants failed: %v", err)
	}
	if len(leaf) != 0 {
		t.Fatalf("expected no descendants for leaf C, got %d", len(leaf))
	}
}

func TestRecordReferralIdempotent(t *testing.T) {
	svc := referral.NewService(newFakeRepository())
	ctx := context.Background()

	parent, child := uuid.New(), uuid.New()

	if err := svc.RecordReferral(ctx, child, parent); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := svc.RecordReferral(ctx, child, parent); err != nil {
		t.Fatalf("replayed record should be a no-op, got %v", err)
	}

	other := uuid.New()
	if err := svc.RecordReferral(ctx, child, other); !errors.Is(err, referral.ErrAlreadyReferred) {
		t.Fatalf("expected ErrAlreadyReferred for second parent, got %v", err)
	}
}

func TestRecordReferralRejectsCycles(t *testing.T) {
	svc := referral.NewService(newFakeRepository())
	ctx := context.Background()

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if err := svc.RecordReferral(ctx, b, a); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := svc.RecordReferral(ctx, c, b); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	// A is an ancestor of C; an edge C->A would close a cycle
	if err := svc.RecordReferral(ctx, a, c); !errors.Is(err, referral.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	if err := svc.RecordReferral(ctx, a, a); !errors.Is(err, referral.ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestDescendantsDeepChain(t *testing.T) {
	svc := referral.NewService(newFakeRepository())
	ctx := context.Background()

	const depth = 500
	root := uuid.New()
	parent := root
	for i := 0; i < depth; i++ {
		child := uuid.New()
		if err := svc.RecordReferral(ctx, child, parent); err != nil {
			t.Fatalf("record at depth %d failed: %v", i, err)
		}
		parent = child
	}

	got, err := svc.Descendants(ctx, root)
	if err != nil {
		t.Fatalf("descendants failed: %v", err)
	}
	if len(got) != depth {
		t.Fatalf("expected %d descendants, got %d", depth, len(got))
	}
}
