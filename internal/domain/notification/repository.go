package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, kind, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.Kind, n.Title, n.Message, n.IsRead, n.CreatedAt)
	return err
}

func (r *repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error) {
	notifications := []*Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, recipientID, limit, offset)
	return notifications, err
}

func (r *repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	return count, err
}

func (r *repository) MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true, read_at = now()
		WHERE id = $1 AND recipient_id = $2 AND NOT is_read
	`, id, recipientID)
	return err
}

func (r *repository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true, read_at = now()
		WHERE recipient_id = $1 AND NOT is_read
	`, recipientID)
	return err
}

func (r *repository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < now() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
