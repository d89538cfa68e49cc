// Package auth issues and validates operator tokens for the admin API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Operator tokens are HS256 JWTs signed with OPERATOR_SIGNING_KEY. They are
// minted out of band by the API binary's issue-token command and carry the
// operator's name as the subject.

// Defaults for operator tokens.
const (
	DefaultIssuer   = "outbackwarning"
	DefaultAudience = "outbackwarning-admin"
	DefaultTokenTTL = 12 * time.Hour
)

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid operator token")
	ErrTokenExpired = errors.New("operator token has expired")
	ErrNoSigningKey = errors.New("operator signing key not configured")
)

// OperatorClaims are the claims carried by operator tokens.
type OperatorClaims struct {
	jwt.RegisteredClaims

	// Operator is a display name for audit logs.
	Operator string `json:"op"`
}

// TokenConfig holds configuration for the token service.
type TokenConfig struct {
	// SigningKey is the HMAC secret. An empty key disables the service.
	SigningKey string
	Issuer     string
	Audience   string
	Clock      clockwork.Clock
}

// TokenService creates and validates operator tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	clock      clockwork.Clock
}

// NewTokenService creates a token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	audience := cfg.Audience
	if audience == "" {
		audience = DefaultAudience
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     issuer,
		audience:   audience,
		clock:      clock,
	}
}

// Enabled reports whether a signing key is configured.
func (s *TokenService) Enabled() bool {
	return s != nil && len(s.signingKey) > 0
}

// Issue mints a token for operator valid for ttl (DefaultTokenTTL if zero).
func (s *TokenService) Issue(operator string, ttl time.Duration) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.clock.Now()
	expiresAt := now.Add(ttl)
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   operator,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Operator: operator,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing operator token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks a token and returns its claims.
func (s *TokenService) Validate(tokenString string) (*OperatorClaims, error) {
	if !s.Enabled() {
		return nil, ErrNoSigningKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
