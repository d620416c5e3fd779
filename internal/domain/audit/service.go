package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service writes the administrative audit trail. Writes are best-effort:
// a failed audit write is reported to operators via the error log but never
// rolls back or blocks the mutation it describes. Ledger writes are strict;
// this asymmetry is deliberate.
type Service struct {
	repo Repository
}

// NewService creates audit service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one audit entry. oldData/newData/metadata may be nil; any
// value is JSON-encoded as given.
func (s *Service) Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, oldData, newData, metadata interface{}) {
	entry := &Entry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		CreatedAt:  time.Now(),
	}
	if entityID != uuid.Nil {
		entry.EntityID = uuid.NullUUID{UUID: entityID, Valid: true}
	}
	entry.OldData = marshal(oldData)
	entry.NewData = marshal(newData)
	entry.Metadata = marshal(metadata)

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().
			Err(err).
			Str("actor_id", actorID.String()).
			Str("action", action).
			Str("entity_type", entityType).
			Msg("audit write failed, mutation stands")
	}
}

// List returns audit entries for external reporting
func (s *Service) List(ctx context.Context, filter Filter) ([]*Entry, int, error) {
	return s.repo.List(ctx, filter)
}

func marshal(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("audit payload not serializable")
		return nil
	}
	return data
}
