package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines audit log data access
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates audit repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, old_data, new_data, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldData,
		entry.NewData,
		entry.Metadata,
		entry.CreatedAt,
	)
	return err
}

func (r *repository) List(ctx context.Context, filter Filter) ([]*Entry, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.ActorID != nil {
		addFilter(` AND actor_id = $%d`, *filter.ActorID)
	}
	if filter.Action != nil {
		addFilter(` AND action = $%d`, *filter.Action)
	}
	if filter.EntityType != nil {
		addFilter(` AND entity_type = $%d`, *filter.EntityType)
	}
	if filter.EntityID != nil {
		addFilter(` AND entity_id = $%d`, *filter.EntityID)
	}
	if filter.FromDate != nil {
		addFilter(` AND created_at >= $%d`, *filter.FromDate)
	}
	if filter.ToDate != nil {
		addFilter(` AND created_at <= $%d`, *filter.ToDate)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_log`+where, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT * FROM audit_log` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	entries := []*Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
