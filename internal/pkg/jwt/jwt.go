package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents access JWT claims
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	Type      string    `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims represents refresh JWT claims
type RefreshClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	Type      string    `json:"type"`
	jwt.RegisteredClaims
}

// Service handles JWT operations
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates JWT service
func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GetAccessTTL returns the access token TTL
func (s *Service) GetAccessTTL() time.Duration {
	return s.accessTTL
}

// GetRefreshTTL returns the refresh token TTL
func (s *Service) GetRefreshTTL() time.Duration {
	return s.refreshTTL
}

// GenerateAccessToken generates an access token
func (s *Service) GenerateAccessToken(accountID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		Type:      TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   accountID.String(),
			Issuer:    "civio-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GenerateRefreshToken generates a refresh token
func (s *Service) GenerateRefreshToken(accountID uuid.UUID) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		AccountID: accountID,
		Type:      TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   accountID.String(),
			Issuer:    "civio-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// HashRefreshToken hashes a refresh token for storage. Only the hash is
// ever persisted.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateAccessToken validates an access token and returns its claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (s *Service) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid || claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
