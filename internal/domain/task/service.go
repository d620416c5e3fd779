package task

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

// Decision is a review outcome
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PointsLedger is the ledger surface the task workflow drives
type PointsLedger interface {
	Award(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
}

// ScopeChecker authorizes reviewers and task administration
type ScopeChecker interface {
	CanAct(ctx context.Context, actor authz.Actor, targetAccountID uuid.UUID, action authz.Action) (bool, error)
	CanActOnEntity(ctx context.Context, actor authz.Actor, ownerID uuid.UUID, action authz.Action) (bool, error)
	CanAdminister(actor authz.Actor, action authz.Action) bool
}

// AuditRecorder appends audit entries (best-effort)
type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, oldData, newData, metadata interface{})
}

// Notifier enqueues member notifications (fire-and-forget)
type Notifier interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, message string)
}

// Service drives the claim/submit/review workflow. Ledger writes are strict:
// a failed award is surfaced. Audit and notification writes are side effects
// that never fail a transition.
type Service struct {
	repo     Repository
	ledger   PointsLedger
	scope    ScopeChecker
	auditLog AuditRecorder
	notifier Notifier
}

// NewService creates task service
func NewService(repo Repository, pointsLedger PointsLedger, scope ScopeChecker, auditLog AuditRecorder, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		ledger:   pointsLedger,
		scope:    scope,
		auditLog: auditLog,
		notifier: notifier,
	}
}

// Create publishes a new open task
func (s *Service) Create(ctx context.Context, actor authz.Actor, title, description string, points int64, requiresProof bool) (*Task, error) {
	allowed, err := s.scope.CanActOnEntity(ctx, actor, actor.ID, authz.ActionTaskManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	now := time.Now()
	t := &Task{
		ID:            uuid.New(),
		Title:         title,
		Points:        points,
		Status:        StatusOpen,
		RequiresProof: requiresProof,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if description != "" {
		t.Description = sql.NullString{String: description, Valid: true}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "task.created", "task", t.ID, nil, t, nil)
	return t, nil
}

// GetByID returns one task
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns tasks, optionally filtered by status
func (s *Service) List(ctx context.Context, status *Status, limit, offset int) ([]*Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Claim assigns an open task to userID. Exactly one of two racing claims
// wins; the loser gets ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, taskID, userID uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	won, err := s.repo.Claim(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyClaimed
	}

	s.auditLog.Record(ctx, userID, "task.claimed", "task", taskID,
		map[string]string{"status": string(t.Status)},
		map[string]string{"status": string(StatusInProgress), "assignee_id": userID.String()},
		nil,
	)

	return s.repo.GetByID(ctx, taskID)
}

// Submit hands the task in for review with an optional proof
func (s *Service) Submit(ctx context.Context, taskID, userID uuid.UUID, proof string) (*Submission, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.AssigneeID.Valid || t.AssigneeID.UUID != userID {
		return nil, ErrNotAssignee
	}
	if t.RequiresProof && proof == "" {
		return nil, ErrProofRequired
	}

	sub := &Submission{
		ID:          uuid.New(),
		TaskID:      taskID,
		SubmittedBy: userID,
		Status:      SubmissionPending,
		CreatedAt:   time.Now(),
	}
	if proof != "" {
		sub.Proof = sql.NullString{String: proof, Valid: true}
	}

	ok, err := s.repo.SubmitForReview(ctx, taskID, sub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotSubmittable
	}

	s.auditLog.Record(ctx, userID, "task.submitted", "task", taskID,
		map[string]string{"status": string(StatusInProgress)},
		map[string]string{"status": string(StatusPendingReview), "submission_id": sub.ID.String()},
		nil,
	)
	s.notifier.Enqueue(ctx, t.CreatedBy, notification.KindTaskSubmitted,
		"Submission pending review",
		fmt.Sprintf("%q has a new submission awaiting review", t.Title))

	return sub, nil
}

// Review settles a pending submission. Approval completes the task and
// awards the task's points to the assignee exactly once; rejection returns
// the task to the assignee for another attempt.
func (s *Service) Review(ctx context.Context, submissionID uuid.UUID, reviewer authz.Actor, decision Decision, feedback string) (*Submission, error) {
	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != SubmissionPending {
		return nil, ErrAlreadyReviewed
	}

	t, err := s.repo.GetByID(ctx, sub.TaskID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.scope.CanAct(ctx, reviewer, sub.SubmittedBy, authz.ActionTaskReview)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	switch decision {
	case DecisionApprove:
		ok, err := s.repo.DecideSubmission(ctx, submissionID, SubmissionApproved, reviewer.ID, feedback, t.Points, StatusCompleted)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyReviewed
		}

		ref := &ledger.Reference{Type: "task", ID: t.ID}
		if _, err := s.ledger.Award(ctx, sub.SubmittedBy, t.Points, ledger.EntryTypeEarnTask, ref,
			fmt.Sprintf("Task completed: %s", t.Title), reviewer.ID); err != nil {
			// The review already committed; the missing award needs manual
			// reconciliation, a blind retry could double-credit.
			log.Error().
				Err(err).
				Str("marker", "reconcile").
				Str("submission_id", submissionID.String()).
				Str("task_id", t.ID.String()).
				Str("assignee_id", sub.SubmittedBy.String()).
				Int64("points", t.Points).
				Msg("submission approved but point award failed")
			return nil, fmt.Errorf("approval committed but award failed: %w", err)
		}

		s.auditLog.Record(ctx, reviewer.ID, "task.approved", "task_submission", submissionID,
			map[string]string{"status": string(SubmissionPending)},
			map[string]interface{}{"status": string(SubmissionApproved), "points_awarded": t.Points},
			nil,
		)
		s.notifier.Enqueue(ctx, sub.SubmittedBy, notification.KindTaskApproved,
			"Submission approved",
			fmt.Sprintf("%q was approved, %d points awarded", t.Title, t.Points))

	case DecisionReject:
		ok, err := s.repo.DecideSubmission(ctx, submissionID, SubmissionRejected, reviewer.ID, feedback, 0, StatusInProgress)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyReviewed
		}

		s.auditLog.Record(ctx, reviewer.ID, "task.rejected", "task_submission", submissionID,
			map[string]string{"status": string(SubmissionPending)},
			map[string]string{"status": string(SubmissionRejected), "feedback": feedback},
			nil,
		)
		s.notifier.Enqueue(ctx, sub.SubmittedBy, notification.KindTaskRejected,
			"Submission rejected",
			fmt.Sprintf("%q was sent back, you can resubmit", t.Title))

	default:
		return nil, fmt.Errorf("unknown review decision %q", decision)
	}

	return s.repo.GetSubmission(ctx, submissionID)
}

// Cancel withdraws an open or claimed task
func (s *Service) Cancel(ctx context.Context, taskID uuid.UUID, actor authz.Actor) error {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	allowed, err := s.scope.CanActOnEntity(ctx, actor, t.CreatedBy, authz.ActionTaskCancel)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	ok, err := s.repo.Cancel(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCancellable
	}

	s.auditLog.Record(ctx, actor.ID, "task.cancelled", "task", taskID,
		map[string]string{"status": string(t.Status)},
		map[string]string{"status": string(StatusCancelled)},
		nil,
	)
	return nil
}

// Delete removes a task entirely. Reserved to super_admin.
func (s *Service) Delete(ctx context.Context, taskID uuid.UUID, actor authz.Actor) error {
	if !s.scope.CanAdminister(actor, authz.ActionTaskDelete) {
		return ErrForbidden
	}

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.auditLog.Record(ctx, actor.ID, "task.deleted", "task", taskID, t, nil, nil)
	return nil
}
