package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civio/civio-api/internal/domain/audit"
	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
	"github.com/civio/civio-api/internal/pkg/jwt"
)

// PointsLedger is the ledger surface manual adjustments drive
type PointsLedger interface {
	Award(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	Spend(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ScopeChecker authorizes administrative actions
type ScopeChecker interface {
	CanAct(ctx context.Context, actor authz.Actor, targetAccountID uuid.UUID, action authz.Action) (bool, error)
	CanAdminister(actor authz.Actor, action authz.Action) bool
}

// AuditLog records and lists audit entries
type AuditLog interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, oldData, newData, metadata interface{})
	List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, int, error)
}

// Notifier enqueues member notifications (fire-and-forget)
type Notifier interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, message string)
}

// Service handles administrative operations on members
type Service struct {
	repo       Repository
	accounts   member.Repository
	ledger     PointsLedger
	scope      ScopeChecker
	auditLog   AuditLog
	notifier   Notifier
	jwtService *jwt.Service
}

// NewService creates admin service
func NewService(repo Repository, accounts member.Repository, pointsLedger PointsLedger, scope ScopeChecker, auditLog AuditLog, notifier Notifier, jwtService *jwt.Service) *Service {
	return &Service{
		repo:       repo,
		accounts:   accounts,
		ledger:     pointsLedger,
		scope:      scope,
		auditLog:   auditLog,
		notifier:   notifier,
		jwtService: jwtService,
	}
}

// AdjustPoints credits or debits a member's balance manually. Positive
// amounts credit, negative debit. The entry is always of type adjustment.
func (s *Service) AdjustPoints(ctx context.Context, actor authz.Actor, targetID uuid.UUID, amount int64, reason string) (*ledger.Entry, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	allowed, err := s.scope.CanAct(ctx, actor, targetID, authz.ActionMemberAdjustPoints)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	oldBalance := target.Balance

	var entry *ledger.Entry
	if amount > 0 {
		entry, err = s.ledger.Award(ctx, targetID, amount, ledger.EntryTypeAdjustment, nil, reason, actor.ID)
	} else {
		entry, err = s.ledger.Spend(ctx, targetID, -amount, ledger.EntryTypeAdjustment, nil, reason, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "member.points_adjusted", "account", targetID,
		map[string]int64{"balance": oldBalance},
		map[string]int64{"balance": entry.BalanceAfter},
		map[string]interface{}{"amount": amount, "reason": reason},
	)

	if amount > 0 {
		s.notifier.Enqueue(ctx, targetID, notification.KindPointsAwarded,
			"Points adjusted",
			fmt.Sprintf("You received %d points: %s", amount, reason))
	}

	log.Info().
		Str("actor_id", actor.ID.String()).
		Str("target_id", targetID.String()).
		Int64("amount", amount).
		Msg("manual point adjustment")

	return entry, nil
}

// ChangeRole moves a member to a different role
func (s *Service) ChangeRole(ctx context.Context, actor authz.Actor, targetID uuid.UUID, newRole member.Role) (*member.Account, error) {
	if !newRole.IsValid() {
		return nil, ErrInvalidRole
	}
	if actor.ID == targetID {
		return nil, ErrSelfTargeting
	}

	allowed, err := s.scope.CanAct(ctx, actor, targetID, authz.ActionMemberChangeRole)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	oldRole := target.Role

	if err := s.accounts.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "member.role_changed", "account", targetID,
		map[string]string{"role": string(oldRole)},
		map[string]string{"role": string(newRole)},
		nil,
	)

	return s.accounts.GetByID(ctx, targetID)
}

// Deactivate disables a member's account
func (s *Service) Deactivate(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return ErrSelfTargeting
	}

	allowed, err := s.scope.CanAct(ctx, actor, targetID, authz.ActionMemberDeactivate)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.accounts.Deactivate(ctx, targetID); err != nil {
		return err
	}

	s.auditLog.Record(ctx, actor.ID, "member.deactivated", "account", targetID,
		map[string]bool{"is_active": target.IsActive},
		map[string]bool{"is_active": false},
		nil,
	)

	return nil
}

// Impersonate issues an access token for another account. Super admin only,
// and always audited.
func (s *Service) Impersonate(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (string, error) {
	if !s.scope.CanAdminister(actor, authz.ActionMemberImpersonate) {
		return "", ErrForbidden
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return "", err
	}

	token, err := s.jwtService.GenerateAccessToken(target.ID, string(target.Role))
	if err != nil {
		return "", err
	}

	s.auditLog.Record(ctx, actor.ID, "member.impersonated", "account", targetID, nil, nil,
		map[string]string{"target_role": string(target.Role)},
	)

	log.Warn().
		Str("actor_id", actor.ID.String()).
		Str("target_id", targetID.String()).
		Msg("impersonation token issued")

	return token, nil
}

// ListAuditLog exposes the audit trail to admins
func (s *Service) ListAuditLog(ctx context.Context, actor authz.Actor, filter audit.Filter) ([]*audit.Entry, int, error) {
	if !s.scope.CanAdminister(actor, authz.ActionAuditView) {
		return nil, 0, ErrForbidden
	}
	return s.auditLog.List(ctx, filter)
}

// GetDashboardStats returns aggregate counters
func (s *Service) GetDashboardStats(ctx context.Context, actor authz.Actor) (*DashboardStats, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.GetDashboardStats(ctx)
}
