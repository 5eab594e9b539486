package jwtx

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest secret NewCodec accepts, in bytes.
const MinSecretLength = 32

const sealName = "token"

// CodecConfig configures a Codec.
type CodecConfig struct {
	Secret   []byte           // Required: at least MinSecretLength bytes
	Issuer   string           // Optional: iss claim, checked on verify
	TTL      time.Duration    // Optional: session lifetime (default: DefaultSessionTTL)
	ResetTTL time.Duration    // Optional: reset-link lifetime (default: DefaultResetTTL)
	Now      func() time.Time // Optional: clock, for tests
}

// Codec issues and verifies self-contained tokens. A token is an HS256 JWT
// sealed with AES-256 and an HMAC by securecookie, so clients cannot read
// the claims. All keys are derived from one secret with HKDF.
type Codec struct {
	signingKey []byte
	sealer     *securecookie.SecureCookie
	parser     *jwt.Parser

	issuer   string
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// NewCodec derives the signing and sealing keys from cfg.Secret.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwtx: secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signingKey, hashKey, blockKey, err := deriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	// Expiry is enforced through the JWT exp claim so the clock stays injectable.
	sealer := securecookie.New(hashKey, blockKey).MaxAge(0)
	sealer.SetSerializer(securecookie.NopEncoder{})

	return &Codec{
		signingKey: signingKey,
		sealer:     sealer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(cfg.Now),
		),
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		resetTTL: cfg.ResetTTL,
		now:      cfg.Now,
	}, nil
}

// TTL returns the session token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// ResetTTL returns the reset-link token lifetime.
func (c *Codec) ResetTTL() time.Duration { return c.resetTTL }

// Issue returns a session token for id.
func (c *Codec) Issue(id Identity) (string, error) {
	return c.seal(NewClaims(id, AudienceSession, c.issuer, c.ttl, c.now()))
}

// Verify decodes a session token. Every failure wraps ErrInvalidToken.
func (c *Codec) Verify(token string) (Claims, error) {
	return c.open(token, AudienceSession)
}

// IssueReset returns a password-reset token bound to fingerprint.
func (c *Codec) IssueReset(id Identity, fingerprint string) (string, error) {
	claims := NewClaims(id, AudiencePasswordReset, c.issuer, c.resetTTL, c.now())
	claims.Fingerprint = fingerprint
	return c.seal(claims)
}

// VerifyReset decodes a password-reset token. The caller still has to
// compare the fingerprint with the current password digest.
func (c *Codec) VerifyReset(token string) (Claims, error) {
	claims, err := c.open(token, AudiencePasswordReset)
	if err != nil {
		return Claims{}, err
	}
	if claims.Fingerprint == "" {
		return Claims{}, invalid(ErrFingerprint)
	}
	return claims, nil
}

func (c *Codec) seal(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}

	sealed, err := c.sealer.Encode(sealName, []byte(signed))
	if err != nil {
		return "", fmt.Errorf("jwtx: seal: %w", err)
	}
	return sealed, nil
}

func (c *Codec) open(token, audience string) (Claims, error) {
	if token == "" {
		return Claims{}, invalid(ErrMalformed)
	}

	var raw []byte
	if err := c.sealer.Decode(sealName, token, &raw); err != nil {
		if errors.Is(err, securecookie.ErrMacInvalid) {
			return Claims{}, invalid(ErrInvalidSig)
		}
		return Claims{}, invalid(ErrMalformed)
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(string(raw), claims, func(*jwt.Token) (any, error) {
		return c.signingKey, nil
	})
	if err != nil {
		return Claims{}, invalid(mapParseError(err))
	}
	if !parsed.Valid {
		return Claims{}, invalid(ErrMalformed)
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateAudience(audience); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateExpiry(c.now()); err != nil {
		return Claims{}, invalid(err)
	}

	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}

// deriveKeys expands secret into the JWT signing key, the securecookie hash
// key and the AES-256 block key.
func deriveKeys(secret []byte) (signing, hash, block []byte, err error) {
	r := hkdf.New(sha256.New, secret, nil, []byte("accounts/jwtx token keys v1"))

	buf := make([]byte, 96)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, nil, fmt.Errorf("jwtx: derive keys: %w", err)
	}
	return buf[:32], buf[32:64], buf[64:], nil
}
