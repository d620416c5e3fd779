package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
	"github.com/civio/civio-api/internal/pkg/jwt"
	"github.com/civio/civio-api/internal/pkg/password"
)

// ReferralRecorder links a new registrant to their recruiter
type ReferralRecorder interface {
	RecordReferral(ctx context.Context, childID, parentID uuid.UUID) error
}

// PointsLedger pays the recruiter bonus
type PointsLedger interface {
	Award(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	HasReference(ctx context.Context, accountID uuid.UUID, entryType ledger.EntryType, refType string, refID uuid.UUID) (bool, error)
}

// Notifier enqueues member notifications (fire-and-forget)
type Notifier interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, message string)
}

// Service handles authentication business logic
type Service struct {
	accountRepo   member.Repository
	jwtService    *jwt.Service
	redis         *redis.Client // nil if Redis disabled
	referrals     ReferralRecorder
	ledger        PointsLedger
	notifier      Notifier
	referralBonus int64
}

// NewService creates auth service
func NewService(accountRepo member.Repository, jwtService *jwt.Service, redisClient *redis.Client, referrals ReferralRecorder, pointsLedger PointsLedger, notifier Notifier, referralBonus int64) *Service {
	return &Service{
		accountRepo:   accountRepo,
		jwtService:    jwtService,
		redis:         redisClient,
		referrals:     referrals,
		ledger:        pointsLedger,
		notifier:      notifier,
		referralBonus: referralBonus,
	}
}

// Register creates a new account. A valid referrer link pays the recruiter
// their bonus; a broken one is logged and never fails the registration.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	existing, _ := s.accountRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &member.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         member.RoleProspect,
		Balance:      0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if req.ReferrerID != "" {
		if referrerID, err := uuid.Parse(req.ReferrerID); err == nil {
			s.linkReferral(ctx, account.ID, referrerID, req.DisplayName)
		}
	}

	return s.generateTokens(ctx, account)
}

// linkReferral records the edge and pays the recruiter. The account already
// exists, so every failure here is logged and swallowed.
func (s *Service) linkReferral(ctx context.Context, childID, referrerID uuid.UUID, childName string) {
	if _, err := s.accountRepo.GetByID(ctx, referrerID); err != nil {
		log.Warn().
			Str("referrer_id", referrerID.String()).
			Str("child_id", childID.String()).
			Msg("registration referrer does not exist, skipping")
		return
	}

	if err := s.referrals.RecordReferral(ctx, childID, referrerID); err != nil {
		log.Warn().
			Err(err).
			Str("referrer_id", referrerID.String()).
			Str("child_id", childID.String()).
			Msg("could not record referral edge")
		return
	}

	if s.referralBonus <= 0 {
		return
	}

	ref := &ledger.Reference{Type: "referral", ID: childID}
	paid, err := s.ledger.HasReference(ctx, referrerID, ledger.EntryTypeEarnReferral, ref.Type, ref.ID)
	if err == nil && !paid {
		if _, err := s.ledger.Award(ctx, referrerID, s.referralBonus, ledger.EntryTypeEarnReferral, ref,
			"Referral bonus", childID); err != nil {
			log.Error().
				Err(err).
				Str("marker", "reconcile").
				Str("referrer_id", referrerID.String()).
				Str("child_id", childID.String()).
				Int64("points", s.referralBonus).
				Msg("referral recorded but bonus award failed")
			return
		}
	}

	s.notifier.Enqueue(ctx, referrerID, notification.KindNewRecruit,
		"New recruit",
		fmt.Sprintf("%s joined using your referral", childName))
}

// Login authenticates an account
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil || account == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	return s.generateTokens(ctx, account)
}

// Refresh rotates a refresh token into a fresh token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	if err := s.checkRefreshToken(ctx, refreshHash, claims.AccountID); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	// Rotation: the presented token is spent either way.
	_ = s.deleteRefreshToken(ctx, refreshHash)

	return s.generateTokens(ctx, account)
}

// Logout invalidates a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentAccount returns the authenticated account
func (s *Service) GetCurrentAccount(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	resp := newAccountResponse(account)
	return &resp, nil
}

func newAccountResponse(account *member.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        string(account.Role),
		Balance:     account.Balance,
		CreatedAt:   account.CreatedAt,
	}
}

func (s *Service) generateTokens(ctx context.Context, account *member.Account) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(account.ID, string(account.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, jwt.HashRefreshToken(refreshToken), account.ID); err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: newAccountResponse(account),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
		},
	}, nil
}

// Redis helpers (handle nil redis gracefully)
func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, accountID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, "refresh:"+tokenHash, accountID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) checkRefreshToken(ctx context.Context, tokenHash string, accountID uuid.UUID) error {
	if s.redis == nil {
		// Without Redis the signed claims are the only check.
		return nil
	}
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil || val != accountID.String() {
		return ErrInvalidRefreshToken
	}
	return nil
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}
