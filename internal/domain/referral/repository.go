package referral

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines referral edge data access
type Repository interface {
	InsertEdge(ctx context.Context, edge *Edge) error
	ParentOf(ctx context.Context, childID uuid.UUID) (uuid.UUID, bool, error)
	ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates referral repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertEdge(ctx context.Context, edge *Edge) error {
	// child_id is the primary key; replaying the same edge is a no-op
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referral_edges (child_id, parent_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (child_id) DO NOTHING
	`, edge.ChildID, edge.ParentID, edge.CreatedAt)
	return err
}

func (r *repository) ParentOf(ctx context.Context, childID uuid.UUID) (uuid.UUID, bool, error) {
	var parentID uuid.UUID
	err := r.db.GetContext(ctx, &parentID,
		`SELECT parent_id FROM referral_edges WHERE child_id = $1`, childID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return parentID, true, nil
}

func (r *repository) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	children := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &children,
		`SELECT child_id FROM referral_edges WHERE parent_id = $1`, parentID)
	return children, err
}
