package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles notification logic. Delivery is fire-and-forget: the
// engine enqueues rows and never waits on or propagates delivery failures.
type Service struct {
	repo Repository
}

// NewService creates notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue records a notification for a recipient. Failures are logged and
// swallowed; a notification must never fail the operation that caused it.
func (s *Service) Enqueue(ctx context.Context, recipientID uuid.UUID, kind Kind, title, message string) {
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}
	if message != "" {
		n.Message = sql.NullString{String: message, Valid: true}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		log.Error().
			Err(err).
			Str("recipient_id", recipientID.String()).
			Str("kind", string(kind)).
			Msg("notification enqueue failed")
	}
}

// List returns notifications for a recipient
func (s *Service) List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByRecipient(ctx, recipientID, limit, offset)
}

// UnreadCount returns the unread count
func (s *Service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkAsRead marks a single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, recipientID)
}

// MarkAllAsRead marks all of a recipient's notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}
