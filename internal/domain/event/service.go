package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/notification"
)

// PointsLedger is the ledger surface check-ins drive
type PointsLedger interface {
	Award(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	HasReference(ctx context.Context, accountID uuid.UUID, entryType ledger.EntryType, refType string, refID uuid.UUID) (bool, error)
}

// ScopeChecker authorizes event management
type ScopeChecker interface {
	CanActOnEntity(ctx context.Context, actor authz.Actor, ownerID uuid.UUID, action authz.Action) (bool, error)
}

// AuditRecorder appends audit entries (best-effort)
type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, oldData, newData, metadata interface{})
}

// Notifier enqueues member notifications (fire-and-forget)
type Notifier interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, message string)
}

// Service handles event business logic
type Service struct {
	repo     Repository
	ledger   PointsLedger
	scope    ScopeChecker
	auditLog AuditRecorder
	notifier Notifier
	now      func() time.Time
}

// NewService creates event service
func NewService(repo Repository, pointsLedger PointsLedger, scope ScopeChecker, auditLog AuditRecorder, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		ledger:   pointsLedger,
		scope:    scope,
		auditLog: auditLog,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create publishes a new event organized by the actor
func (s *Service) Create(ctx context.Context, actor authz.Actor, req *CreateEventRequest) (*Event, error) {
	allowed, err := s.scope.CanActOnEntity(ctx, actor, actor.ID, authz.ActionEventManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidTimeWindow
	}

	now := s.now()
	e := &Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Location:    req.Location,
		Points:      req.Points,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		OrganizerID: actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Description != "" {
		e.Description = sql.NullString{String: req.Description, Valid: true}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "event.created", "event", e.ID, nil, e, nil)
	return e, nil
}

// Update edits an event the actor organizes or oversees
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req *UpdateEventRequest) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.scope.CanActOnEntity(ctx, actor, e.OrganizerID, authz.ActionEventManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	before := *e
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Points != nil {
		e.Points = *req.Points
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if !e.EndsAt.After(e.StartsAt) {
		return nil, ErrInvalidTimeWindow
	}
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "event.updated", "event", e.ID, before, e, nil)
	return e, nil
}

// GetByID returns one event
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns current and upcoming events
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, s.now(), limit, offset)
}

// Delete removes an event the actor organizes or oversees
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.scope.CanActOnEntity(ctx, actor, e.OrganizerID, authz.ActionEventManage)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditLog.Record(ctx, actor.ID, "event.deleted", "event", id, e, nil, nil)
	return nil
}

// CheckIn records attendance and awards the event's points. Checking in
// twice is a no-op: attendance inserts at most once and the award is
// guarded by the ledger reference.
func (s *Service) CheckIn(ctx context.Context, eventID, accountID uuid.UUID) (*Event, error) {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsRunning(s.now()) {
		return nil, ErrEventNotRunning
	}

	inserted, err := s.repo.InsertCheckIn(ctx, eventID, accountID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrAlreadyCheckedIn
	}

	s.auditLog.Record(ctx, accountID, "event.checked_in", "event", eventID, nil,
		map[string]string{"account_id": accountID.String()}, nil)

	if e.Points > 0 {
		ref := &ledger.Reference{Type: "event", ID: eventID}
		awarded, err := s.ledger.HasReference(ctx, accountID, ledger.EntryTypeEarnEvent, ref.Type, ref.ID)
		if err != nil {
			return nil, err
		}
		if !awarded {
			if _, err := s.ledger.Award(ctx, accountID, e.Points, ledger.EntryTypeEarnEvent, ref,
				fmt.Sprintf("Attended event: %s", e.Title), accountID); err != nil {
				log.Error().
					Err(err).
					Str("marker", "reconcile").
					Str("event_id", eventID.String()).
					Str("account_id", accountID.String()).
					Int64("points", e.Points).
					Msg("check-in recorded but point award failed")
				return nil, fmt.Errorf("check-in recorded but award failed: %w", err)
			}
			s.notifier.Enqueue(ctx, accountID, notification.KindEventCheckIn,
				"Points earned",
				fmt.Sprintf("You earned %d points for attending %q", e.Points, e.Title))
		}
	}

	return e, nil
}

// Attendance lists who checked in to an event
func (s *Service) Attendance(ctx context.Context, actor authz.Actor, eventID uuid.UUID) ([]*CheckIn, error) {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.scope.CanActOnEntity(ctx, actor, e.OrganizerID, authz.ActionEventManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.repo.ListCheckIns(ctx, eventID)
}
