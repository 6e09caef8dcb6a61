package authtoken

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JWT header constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

// Default token lifetimes. Access tokens live minutes, refresh tokens days.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Codec creates and verifies signed bearer tokens (JWT, HMAC-SHA256). It is
// stateless; issued refresh tokens are persisted elsewhere.
type Codec struct {
	keys       map[Kind][]byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Option configures a Codec during construction.
type Option func(*Codec)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

// New creates a Codec with distinct signing keys for access and refresh
// tokens. Keys should be at least 32 bytes for adequate HMAC-SHA256 security.
func New(accessKey, refreshKey []byte, opts ...Option) (*Codec, error) {
	if len(accessKey) == 0 || len(refreshKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if bytes.Equal(accessKey, refreshKey) {
		return nil, ErrSharedSigningKey
	}

	c := &Codec{
		keys: map[Kind][]byte{
			KindAccess:  accessKey,
			KindRefresh: refreshKey,
		},
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// IssueAccess produces a signed short-lived access token for the subject.
func (c *Codec) IssueAccess(subject uuid.UUID) (string, error) {
	token, _, err := c.issue(subject, KindAccess, c.accessTTL)
	return token, err
}

// IssueRefresh produces a signed long-lived refresh token for the subject and
// returns its absolute expiry, which callers persist alongside the token.
func (c *Codec) IssueRefresh(subject uuid.UUID) (string, time.Time, error) {
	return c.issue(subject, KindRefresh, c.refreshTTL)
}

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) issue(subject uuid.UUID, kind Kind, ttl time.Duration) (string, time.Time, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", time.Time{}, ErrUnknownKind
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		ID:        uuid.NewString(),
		Subject:   subject.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + sign(payload, key), expiresAt, nil
}

// Verify checks the token signature against the key for the given kind,
// validates the expiry claim, and returns the subject. A token signed with the
// other kind's key fails with ErrInvalidSignature.
func (c *Codec) Verify(token string, kind Kind) (uuid.UUID, error) {
	key, ok := c.keys[kind]
	if !ok {
		return uuid.Nil, ErrUnknownKind
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return uuid.Nil, ErrInvalidToken
	}

	// Signature first: forged tokens are rejected before any decoding work.
	payload := parts[0] + "." + parts[1]
	expected := sign(payload, key)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return uuid.Nil, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	// Pinned algorithm prevents algorithm confusion attacks.
	if hdr.Algorithm != headerAlgorithm {
		return uuid.Nil, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	if err := claims.Valid(); err != nil {
		return uuid.Nil, err
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return subject, nil
}

// sign creates a base64url-encoded HMAC-SHA256 signature for the payload.
func sign(payload string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes without padding as required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode accepts unpadded base64url input.
func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
