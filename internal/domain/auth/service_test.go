package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
	"github.com/civio/civio-api/internal/pkg/jwt"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*member.Account
	byEmail  map[string]uuid.UUID
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[uuid.UUID]*member.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (f *fakeAccountRepo) Create(_ context.Context, account *member.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[account.Email]; ok {
		return member.ErrEmailTaken
	}
	cp := *account
	f.accounts[account.ID] = &cp
	f.byEmail[account.Email] = account.ID
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*member.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, member.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*member.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, member.ErrAccountNotFound
	}
	cp := *f.accounts[id]
	return &cp, nil
}

func (f *fakeAccountRepo) UpdateRole(_ context.Context, id uuid.UUID, role member.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return member.ErrAccountNotFound
	}
	account.Role = role
	return nil
}

func (f *fakeAccountRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return member.ErrAccountNotFound
	}
	account.IsActive = false
	return nil
}

func (f *fakeAccountRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts), nil
}

type fakeReferrals struct {
	mu    sync.Mutex
	edges map[uuid.UUID]uuid.UUID
	err   error
}

func newFakeReferrals() *fakeReferrals {
	return &fakeReferrals{edges: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeReferrals) RecordReferral(_ context.Context, childID, parentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.edges[childID] = parentID
	return nil
}

type fakeLedger struct {
	mu     sync.Mutex
	awards map[uuid.UUID]int64 // refID -> amount
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{awards: make(map[uuid.UUID]int64)}
}

func (f *fakeLedger) Award(_ context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, _ string, _ uuid.UUID) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards[ref.ID] += amount
	return &ledger.Entry{ID: uuid.New(), AccountID: accountID, Type: entryType, Amount: amount}, nil
}

func (f *fakeLedger) HasReference(_ context.Context, _ uuid.UUID, _ ledger.EntryType, _ string, refID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.awards[refID]
	return ok, nil
}

type noopNotifier struct{}

func (noopNotifier) Enqueue(_ context.Context, _ uuid.UUID, _ notification.Kind, _, _ string) {}

func newTestService(repo member.Repository, referrals ReferralRecorder, lg PointsLedger) *Service {
	jwtService := jwt.NewService("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(repo, jwtService, nil, referrals, lg, noopNotifier{}, 25)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo, newFakeReferrals(), newFakeLedger())

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "Ada@Example.COM",
		Password:    "correct-horse",
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Account.Email != "ada@example.com" {
		t.Errorf("email should be normalized, got %s", resp.Account.Email)
	}
	if resp.Account.Role != string(member.RoleProspect) {
		t.Errorf("new accounts start as prospect, got %s", resp.Account.Role)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("expected both tokens issued")
	}

	login, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Account.ID != resp.Account.ID {
		t.Error("login should resolve the registered account")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo, newFakeReferrals(), newFakeLedger())

	req := &RegisterRequest{Email: "dup@example.com", Password: "password-one", DisplayName: "First"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo, newFakeReferrals(), newFakeLedger())

	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "x@example.com", Password: "right-password", DisplayName: "X",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{
		Email: "x@example.com", Password: "wrong-password",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo, newFakeReferrals(), newFakeLedger())

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "gone@example.com", Password: "some-password", DisplayName: "Gone",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_ = repo.Deactivate(context.Background(), resp.Account.ID)

	if _, err := svc.Login(context.Background(), &LoginRequest{
		Email: "gone@example.com", Password: "some-password",
	}); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestRegisterWithReferralPaysRecruiter(t *testing.T) {
	repo := newFakeAccountRepo()
	referrals := newFakeReferrals()
	lg := newFakeLedger()
	svc := newTestService(repo, referrals, lg)

	recruiter, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "recruiter@example.com", Password: "some-password", DisplayName: "Recruiter",
	})
	if err != nil {
		t.Fatalf("register recruiter: %v", err)
	}

	recruit, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "recruit@example.com",
		Password:    "other-password",
		DisplayName: "Recruit",
		ReferrerID:  recruiter.Account.ID.String(),
	})
	if err != nil {
		t.Fatalf("register recruit: %v", err)
	}

	if got := referrals.edges[recruit.Account.ID]; got != recruiter.Account.ID {
		t.Errorf("referral edge not recorded, got parent %s", got)
	}
	if got := lg.awards[recruit.Account.ID]; got != 25 {
		t.Errorf("expected 25 point bonus keyed to the recruit, got %d", got)
	}
}

func TestRegisterWithBrokenReferralStillSucceeds(t *testing.T) {
	repo := newFakeAccountRepo()
	referrals := newFakeReferrals()
	referrals.err = errors.New("graph store down")
	lg := newFakeLedger()
	svc := newTestService(repo, referrals, lg)

	recruiter, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "lead@example.com", Password: "some-password", DisplayName: "Lead",
	})
	if err != nil {
		t.Fatalf("register recruiter: %v", err)
	}

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "newbie@example.com",
		Password:    "other-password",
		DisplayName: "Newbie",
		ReferrerID:  recruiter.Account.ID.String(),
	})
	if err != nil {
		t.Fatalf("registration must survive referral failure: %v", err)
	}
	if resp.Account.Email != "newbie@example.com" {
		t.Errorf("unexpected account %+v", resp.Account)
	}
	if len(lg.awards) != 0 {
		t.Errorf("no bonus should be paid when the edge was not recorded")
	}

	// A referrer that does not exist at all is also tolerated.
	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "orphan@example.com",
		Password:    "third-password",
		DisplayName: "Orphan",
		ReferrerID:  uuid.New().String(),
	}); err != nil {
		t.Fatalf("registration must survive unknown referrer: %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo, newFakeReferrals(), newFakeLedger())

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "rotate@example.com", Password: "some-password", DisplayName: "Rotate",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Account.ID != resp.Account.ID {
		t.Error("refresh should resolve the same account")
	}
	if refreshed.Tokens.AccessToken == "" {
		t.Error("expected a fresh access token")
	}

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}
