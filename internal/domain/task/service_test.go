package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
)

// fakeRepository implements Repository in memory with the same
// compare-and-set semantics as the SQL implementation.
type fakeRepository struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID]*Task
	submissions map[uuid.UUID]*Submission
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		tasks:       make(map[uuid.UUID]*Task),
		submissions: make(map[uuid.UUID]*Submission),
	}
}

func (f *fakeRepository) Create(_ context.Context, t *Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeRepository) Update(_ context.Context, t *Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) List(_ context.Context, status *Status, limit, offset int) ([]*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Task
	for _, t := range f.tasks {
		if status != nil && t.Status != *status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepository) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeRepository) Claim(_ context.Context, taskID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.Status != StatusOpen {
		return false, nil
	}
	t.Status = StatusInProgress
	t.AssigneeID = uuid.NullUUID{UUID: userID, Valid: true}
	return true, nil
}

func (f *fakeRepository) SubmitForReview(_ context.Context, taskID uuid.UUID, sub *Submission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.Status != StatusInProgress {
		return false, nil
	}
	if !t.AssigneeID.Valid || t.AssigneeID.UUID != sub.SubmittedBy {
		return false, nil
	}
	t.Status = StatusPendingReview
	cp := *sub
	f.submissions[sub.ID] = &cp
	return true, nil
}

func (f *fakeRepository) GetSubmission(_ context.Context, id uuid.UUID) (*Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepository) DecideSubmission(_ context.Context, submissionID uuid.UUID, decision SubmissionStatus, reviewerID uuid.UUID, feedback string, pointsAwarded int64, taskStatus Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[submissionID]
	if !ok || s.Status != SubmissionPending {
		return false, nil
	}
	s.Status = decision
	s.ReviewedBy = uuid.NullUUID{UUID: reviewerID, Valid: true}
	if feedback != "" {
		s.Feedback = sql.NullString{String: feedback, Valid: true}
	}
	if decision == SubmissionApproved {
		s.PointsAwarded = sql.NullInt64{Int64: pointsAwarded, Valid: true}
	}
	s.ReviewedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if t, ok := f.tasks[s.TaskID]; ok {
		t.Status = taskStatus
	}
	return true, nil
}

func (f *fakeRepository) Cancel(_ context.Context, taskID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || !t.CanBeCancelled() {
		return false, nil
	}
	t.Status = StatusCancelled
	return true, nil
}

type awardCall struct {
	accountID uuid.UUID
	amount    int64
	entryType ledger.EntryType
	ref       *ledger.Reference
}

type fakeLedger struct {
	mu     sync.Mutex
	awards []awardCall
	err    error
}

func (f *fakeLedger) Award(_ context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, _ string, _ uuid.UUID) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.awards = append(f.awards, awardCall{accountID: accountID, amount: amount, entryType: entryType, ref: ref})
	return &ledger.Entry{ID: uuid.New(), AccountID: accountID, Type: entryType, Amount: amount}, nil
}

type fakeScope struct {
	allow      bool
	allowAdmin bool
}

func (f *fakeScope) CanAct(_ context.Context, _ authz.Actor, _ uuid.UUID, _ authz.Action) (bool, error) {
	return f.allow, nil
}

func (f *fakeScope) CanActOnEntity(_ context.Context, _ authz.Actor, _ uuid.UUID, _ authz.Action) (bool, error) {
	return f.allow, nil
}

func (f *fakeScope) CanAdminister(_ authz.Actor, _ authz.Action) bool {
	return f.allowAdmin
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, _ uuid.UUID, action, _ string, _ uuid.UUID, _, _, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []notification.Kind
}

func (f *fakeNotifier) Enqueue(_ context.Context, _ uuid.UUID, kind notification.Kind, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func newTestService(repo Repository, lg *fakeLedger, scope *fakeScope) *Service {
	return NewService(repo, lg, scope, &fakeAudit{}, &fakeNotifier{})
}

func seedTask(repo *fakeRepository, points int64, requiresProof bool) *Task {
	t := &Task{
		ID:            uuid.New(),
		Title:         "Distribute flyers",
		Points:        points,
		Status:        StatusOpen,
		RequiresProof: requiresProof,
		CreatedBy:     uuid.New(),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	_ = repo.Create(context.Background(), t)
	return t
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true})
	seeded := seedTask(repo, 10, false)

	const claimers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(context.Background(), seeded.ID, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyClaimed):
				losses++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winning claim, got %d", wins)
	}
	if losses != claimers-1 {
		t.Errorf("expected %d losing claims, got %d", claimers-1, losses)
	}
}

func TestApproveAwardsPointsExactlyOnce(t *testing.T) {
	repo := newFakeRepository()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, &fakeScope{allow: true})
	seeded := seedTask(repo, 50, false)
	assignee := uuid.New()
	reviewer := authz.Actor{ID: uuid.New(), Role: member.RoleRegionalLeader}

	if _, err := svc.Claim(context.Background(), seeded.ID, assignee); err != nil {
		t.Fatalf("claim: %v", err)
	}
	sub, err := svc.Submit(context.Background(), seeded.ID, assignee, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := svc.Review(context.Background(), sub.ID, reviewer, DecisionApprove, "good work")
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	if reviewed.Status != SubmissionApproved {
		t.Errorf("expected submission approved, got %s", reviewed.Status)
	}
	if !reviewed.PointsAwarded.Valid || reviewed.PointsAwarded.Int64 != 50 {
		t.Errorf("expected 50 points recorded on submission, got %+v", reviewed.PointsAwarded)
	}

	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.Status != StatusCompleted {
		t.Errorf("expected task completed, got %s", got.Status)
	}

	if len(lg.awards) != 1 {
		t.Fatalf("expected exactly 1 ledger award, got %d", len(lg.awards))
	}
	award := lg.awards[0]
	if award.accountID != assignee || award.amount != 50 || award.entryType != ledger.EntryTypeEarnTask {
		t.Errorf("unexpected award %+v", award)
	}
	if award.ref == nil || award.ref.Type != "task" || award.ref.ID != seeded.ID {
		t.Errorf("award should reference the task, got %+v", award.ref)
	}
}

func TestRejectReturnsTaskWithoutAward(t *testing.T) {
	repo := newFakeRepository()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, &fakeScope{allow: true})
	seeded := seedTask(repo, 50, false)
	assignee := uuid.New()
	reviewer := authz.Actor{ID: uuid.New(), Role: member.RoleAdmin}

	_, _ = svc.Claim(context.Background(), seeded.ID, assignee)
	sub, _ := svc.Submit(context.Background(), seeded.ID, assignee, "")

	reviewed, err := svc.Review(context.Background(), sub.ID, reviewer, DecisionReject, "missing photos")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != SubmissionRejected {
		t.Errorf("expected submission rejected, got %s", reviewed.Status)
	}

	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.Status != StatusInProgress {
		t.Errorf("expected task back in_progress for another attempt, got %s", got.Status)
	}
	if !got.AssigneeID.Valid || got.AssigneeID.UUID != assignee {
		t.Errorf("assignee should be retained after rejection")
	}
	if len(lg.awards) != 0 {
		t.Errorf("rejection must not award points, got %d awards", len(lg.awards))
	}
}

func TestReviewTwiceReturnsAlreadyReviewed(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true})
	seeded := seedTask(repo, 20, false)
	assignee := uuid.New()
	reviewer := authz.Actor{ID: uuid.New(), Role: member.RoleAdmin}

	_, _ = svc.Claim(context.Background(), seeded.ID, assignee)
	sub, _ := svc.Submit(context.Background(), seeded.ID, assignee, "")

	if _, err := svc.Review(context.Background(), sub.ID, reviewer, DecisionApprove, ""); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if _, err := svc.Review(context.Background(), sub.ID, reviewer, DecisionReject, ""); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestReviewDeniedOutsideScope(t *testing.T) {
	repo := newFakeRepository()
	lg := &fakeLedger{}
	svc := newTestService(repo, lg, &fakeScope{allow: false})
	seeded := seedTask(repo, 20, false)
	assignee := uuid.New()
	reviewer := authz.Actor{ID: uuid.New(), Role: member.RoleRegionalLeader}

	// Claim and submit go through a permissive service; review uses the
	// denying scope.
	permissive := newTestService(repo, lg, &fakeScope{allow: true})
	_, _ = permissive.Claim(context.Background(), seeded.ID, assignee)
	sub, _ := permissive.Submit(context.Background(), seeded.ID, assignee, "")

	if _, err := svc.Review(context.Background(), sub.ID, reviewer, DecisionApprove, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, _ := repo.GetSubmission(context.Background(), sub.ID)
	if got.Status != SubmissionPending {
		t.Errorf("denied review must leave submission pending, got %s", got.Status)
	}
	if len(lg.awards) != 0 {
		t.Errorf("denied review must not award points")
	}
}

func TestSubmitRequiresProofWhenConfigured(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true})
	seeded := seedTask(repo, 10, true)
	assignee := uuid.New()

	_, _ = svc.Claim(context.Background(), seeded.ID, assignee)

	if _, err := svc.Submit(context.Background(), seeded.ID, assignee, ""); !errors.Is(err, ErrProofRequired) {
		t.Errorf("expected ErrProofRequired, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), seeded.ID, assignee, "photo of the stand"); err != nil {
		t.Errorf("submit with proof: %v", err)
	}
}

func TestSubmitByNonAssigneeDenied(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true})
	seeded := seedTask(repo, 10, false)

	_, _ = svc.Claim(context.Background(), seeded.ID, uuid.New())

	if _, err := svc.Submit(context.Background(), seeded.ID, uuid.New(), ""); !errors.Is(err, ErrNotAssignee) {
		t.Errorf("expected ErrNotAssignee, got %v", err)
	}
}

func TestCancelOnlyBeforeReview(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true})
	seeded := seedTask(repo, 10, false)
	assignee := uuid.New()
	owner := authz.Actor{ID: seeded.CreatedBy, Role: member.RoleGroupLeader}

	_, _ = svc.Claim(context.Background(), seeded.ID, assignee)
	if _, err := svc.Submit(context.Background(), seeded.ID, assignee, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Cancel(context.Background(), seeded.ID, owner); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable once under review, got %v", err)
	}

	open := seedTask(repo, 10, false)
	if err := svc.Cancel(context.Background(), open.ID, authz.Actor{ID: open.CreatedBy, Role: member.RoleGroupLeader}); err != nil {
		t.Errorf("cancel open task: %v", err)
	}
}

func TestDeleteRequiresSuperAdmin(t *testing.T) {
	repo := newFakeRepository()
	seeded := seedTask(repo, 10, false)

	denied := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true, allowAdmin: false})
	if err := denied.Delete(context.Background(), seeded.ID, authz.Actor{ID: uuid.New(), Role: member.RoleAdmin}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-super admin, got %v", err)
	}

	allowed := newTestService(repo, &fakeLedger{}, &fakeScope{allow: true, allowAdmin: true})
	if err := allowed.Delete(context.Background(), seeded.ID, authz.Actor{ID: uuid.New(), Role: member.RoleSuperAdmin}); err != nil {
		t.Fatalf("super admin delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), seeded.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("task should be gone after delete")
	}
}
