package referral

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service maintains the recruitment forest and answers descendant queries.
// The graph is read-heavy; the only write is the one edge recorded per
// member at registration time.
type Service struct {
	repo Repository
}

// NewService creates referral service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordReferral records that parentID recruited childID. Idempotent when
// replayed with the same pair. The cycle check is defensive: the forest
// invariant must hold even under buggy callers.
func (s *Service) RecordReferral(ctx context.Context, childID, parentID uuid.UUID) error {
	if childID == parentID {
		return ErrSelfReferral
	}

	existing, found, err := s.repo.ParentOf(ctx, childID)
	if err != nil {
		return err
	}
	if found {
		if existing == parentID {
			return nil
		}
		return ErrAlreadyReferred
	}

	// Reject an edge that would make parentID its own ancestor
	descendants, err := s.Descendants(ctx, childID)
	if err != nil {
		return err
	}
	if _, ok := descendants[parentID]; ok {
		return ErrCycleDetected
	}

	if err := s.repo.InsertEdge(ctx, &Edge{
		ChildID:   childID,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	log.Info().
		Str("child_id", childID.String()).
		Str("parent_id", parentID.String()).
		Msg("referral recorded")
	return nil
}

// Descendants returns every account reachable by following child edges from
// rootID, direct and indirect recruits alike. Iterative BFS with a visited
// set; terminates on any input, including a store that briefly violates the
// forest invariant.
func (s *Service) Descendants(ctx context.Context, rootID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	visited := map[uuid.UUID]struct{}{rootID: {}}
	result := map[uuid.UUID]struct{}{}

	queue := []uuid.UUID{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.repo.ChildrenOf(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			result[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	return result, nil
}

// Parent returns the recruiter of childID, if any
func (s *Service) Parent(ctx context.Context, childID uuid.UUID) (uuid.UUID, bool, error) {
	return s.repo.ParentOf(ctx, childID)
}

// Children returns the direct recruits of parentID
func (s *Service) Children(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ChildrenOf(ctx, parentID)
}
