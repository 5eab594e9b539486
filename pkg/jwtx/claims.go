package jwtx

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultSessionTTL is the lifetime of a session token (70,000,000 ms).
	DefaultSessionTTL = 70_000_000 * time.Millisecond

	// DefaultResetTTL is the lifetime of a password-reset link.
	DefaultResetTTL = 30 * time.Minute
)

// Audiences separate session tokens from reset-link tokens so one can never
// be replayed as the other.
const (
	AudienceSession       = "session"
	AudiencePasswordReset = "password-reset"
)

// Identity is the user data embedded in a token.
type Identity struct {
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	UserName  string `json:"userName,omitempty"`
	FirstName string `json:"firstName"`
	Verified  bool   `json:"verified"`
}

// Claims are the JWT claims carried inside a sealed token.
type Claims struct {
	jwt.RegisteredClaims
	Identity

	// Fingerprint of the password digest a reset token was issued against.
	// Empty on session tokens.
	Fingerprint string `json:"pwd,omitempty"`
}

// NewClaims builds claims for id valid from now for ttl.
func NewClaims(id Identity, audience, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.NewAt(now).String(),
		},
		Identity: id,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks the token was issued for audience.
func (c *Claims) ValidateAudience(audience string) error {
	if slices.Contains(c.Audience, audience) {
		return nil
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before nbf, as seen at now.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
