// Package identity verifies bearer tokens and owns the per-user usage state
// the dispatcher reads and the ledger writes back.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"ai_creation_broker/usage"
)

// DefaultTokenLifetime applies when Mint is called with a zero ttl.
const DefaultTokenLifetime = 24 * time.Hour

var (
	ErrMissingToken = errors.New("identity: missing bearer token")
	ErrTokenExpired = errors.New("identity: token expired")
	ErrInvalidToken = errors.New("identity: invalid token")
)

// Claims are the JWT claims issued to users. Plan is the billing tier.
type Claims struct {
	jwt.RegisteredClaims
	Plan string `json:"plan"`
}

// Principal is the per-request view of a user.
type Principal struct {
	UserID    string
	Plan      usage.Plan
	FreeUsage int
}

// UsageStore persists free-usage counters.
type UsageStore interface {
	FreeUsage(ctx context.Context, userID string) (int, error)
	UpdateFreeUsage(ctx context.Context, userID string, value int) error
}

// Service is the identity collaborator: it authenticates requests and
// implements usage.Directory.
type Service struct {
	secret []byte
	usage  UsageStore
	now    func() time.Time
}

var _ usage.Directory = (*Service)(nil)

func NewService(secret string, store UsageStore) (*Service, error) {
	if secret == "" {
		return nil, errors.New("identity: jwt secret is required")
	}
	if store == nil {
		return nil, errors.New("identity: usage store is required")
	}
	return &Service{secret: []byte(secret), usage: store, now: time.Now}, nil
}

// Mint signs a token for userID on plan.
func (s *Service) Mint(userID string, plan usage.Plan, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("identity: user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenLifetime
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Plan: string(plan),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates tokenString.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves an Authorization header value into a Principal.
func (s *Service) Authenticate(ctx context.Context, header string) (Principal, error) {
	tokenString, ok := bearer(header)
	if !ok {
		return Principal{}, ErrMissingToken
	}
	claims, err := s.Verify(tokenString)
	if err != nil {
		return Principal{}, err
	}
	n, err := s.usage.FreeUsage(ctx, claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("identity: load usage for %s: %w", claims.Subject, err)
	}
	return Principal{
		UserID:    claims.Subject,
		Plan:      usage.ParsePlan(claims.Plan),
		FreeUsage: n,
	}, nil
}

// UpdateFreeUsage implements usage.Directory.
func (s *Service) UpdateFreeUsage(ctx context.Context, userID string, value int) error {
	return s.usage.UpdateFreeUsage(ctx, userID, value)
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
