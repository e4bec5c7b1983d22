// Package auth issues and verifies identity tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"financas/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long a login stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the token payload.
type Claims struct {
	UserID string    `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   core.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller resolved from a token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   core.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == core.RoleAdmin
}

// Tokens signs and parses HS256 tokens with one secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token for u.
func (t *Tokens) Issue(u core.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the identity it carries. Any failure is
// reported as core.ErrUnauthorized.
func (t *Tokens) Parse(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("missing token: %w", core.ErrUnauthorized)
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", errors.Join(core.ErrUnauthorized, err))
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Identity{}, fmt.Errorf("invalid token claims: %w", core.ErrUnauthorized)
	}
	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}
