package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects which credential type a codec operation applies to. Access and
// refresh tokens are signed with distinct secrets and carry their kind as a
// claim, so one can never be substituted for the other undetected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates the token is structurally invalid or its signature does not verify.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrWrongTokenKind indicates a structurally valid token of the wrong kind was presented.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Config carries the per-kind signing secrets and lifetimes. Both secrets are
// required; the codec refuses to construct without them. Zero lifetimes fall
// back to the defaults (15 minutes access, 7 days refresh).
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type claims struct {
	Kind Kind `json:"knd"`
	jwt.RegisteredClaims
}

// Codec signs and verifies account credentials. It holds no mutable state and
// is safe for concurrent use.
type Codec struct {
	cfg Config
}

// NewCodec validates the configuration and constructs a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: signing secrets must be configured")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{cfg: cfg}, nil
}

// Issue produces a signed token of the requested kind embedding the account
// identifier and a kind-specific expiry.
func (c *Codec) Issue(kind Kind, accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("token: account id must be provided")
	}

	secret, ttl, err := c.material(kind)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and kind, returning the embedded account
// identifier. All failures map onto the package sentinel errors; attacker
// controlled input never panics.
func (c *Codec) Verify(kind Kind, tokenString string) (string, error) {
	secret, _, err := c.material(kind)
	if err != nil {
		return "", err
	}

	parsed := &claims{}
	tok, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	if !tok.Valid {
		return "", ErrTokenMalformed
	}
	if parsed.Kind != kind {
		return "", ErrWrongTokenKind
	}
	if parsed.Subject == "" {
		return "", ErrTokenMalformed
	}

	return parsed.Subject, nil
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

func (c *Codec) material(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.cfg.AccessSecret, c.cfg.AccessTTL, nil
	case KindRefresh:
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("token: unknown kind %q", kind)
	}
}
