package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes the atomic award/spend operations that back the points
// economy. It validates inputs; per-account serialization lives in the
// repository.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Award credits an account with the given amount.
// Fails with ErrInvalidAmount if amount <= 0.
func (s *Service) Award(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, ref *Reference, description string, actorID uuid.UUID) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	entry, err := s.repo.Apply(ctx, accountID, amount, entryType, ref, description, actorID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("account_id", accountID.String()).
		Int64("amount", amount).
		Str("type", string(entryType)).
		Str("actor_id", actorID.String()).
		Msg("points awarded")
	return entry, nil
}

// Spend debits an account by the given amount.
// Fails with ErrInvalidAmount if amount <= 0 and with ErrInsufficientBalance
// if the account balance is below the amount; the check is atomic with the
// write, so the balance never goes negative.
func (s *Service) Spend(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, ref *Reference, description string, actorID uuid.UUID) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	entry, err := s.repo.Apply(ctx, accountID, -amount, entryType, ref, description, actorID)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	log.Info().
		Str("account_id", accountID.String()).
		Int64("amount", amount).
		Str("type", string(entryType)).
		Str("actor_id", actorID.String()).
		Msg("points spent")
	return entry, nil
}

// Refund credits an account for a prior spend. The original entry is never
// edited; the refund is a new entry referencing it.
func (s *Service) Refund(ctx context.Context, accountID uuid.UUID, amount int64, ref *Reference, description string, actorID uuid.UUID) (*Entry, error) {
	return s.Award(ctx, accountID, amount, EntryTypeRefund, ref, description, actorID)
}

// GetBalance returns the current balance; read-after-write consistent with
// the account's own prior award/spend calls.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, accountID)
}

// History returns the account's entries, newest first
func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// HasReference reports whether an entry of the given type already references
// the entity. Award/spend calls are not idempotent by themselves; retried
// callers use this check before applying again.
func (s *Service) HasReference(ctx context.Context, accountID uuid.UUID, entryType EntryType, refType string, refID uuid.UUID) (bool, error) {
	_, err := s.repo.GetByReference(ctx, accountID, entryType, refType, refID)
	if errors.Is(err, ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
