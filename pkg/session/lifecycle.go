package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/budgetkit/pkg/authtoken"
)

// PrincipalResolver reports whether the subject of a refresh token still
// exists as an active principal. Owned by the identity subsystem; the
// lifecycle only needs this narrow view of it.
type PrincipalResolver interface {
	PrincipalExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TokenPair is the response shape of Issue and Rotate.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Lifecycle orchestrates the refresh-token state machine: issuance,
// validation with rotation-on-use, revocation, and the theft-detection rule.
// A token moves from issued to consumed (rotated away), revoked (logout,
// theft response, account deletion), or expired; there is no way back.
//
// All coordination between concurrent calls is delegated to the store's
// single-row atomicity; the Lifecycle itself holds no mutable state.
type Lifecycle struct {
	store        Store
	codec        *authtoken.Codec
	principals   PrincipalResolver
	log          *slog.Logger
	issueRetries int
}

// LifecycleOption configures a Lifecycle during construction.
type LifecycleOption func(*Lifecycle)

// WithLogger sets the logger used for theft-detection and sweep reporting.
func WithLogger(log *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if log != nil {
			l.log = log
		}
	}
}

// WithIssueRetries bounds the transparent re-issue attempts after a
// duplicate-token insert.
func WithIssueRetries(n int) LifecycleOption {
	return func(l *Lifecycle) {
		if n > 0 {
			l.issueRetries = n
		}
	}
}

// NewLifecycle creates a Lifecycle over the given store, codec, and principal
// resolver. Dependencies are explicit; there is no ambient store handle.
func NewLifecycle(store Store, codec *authtoken.Codec, principals PrincipalResolver, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store:        store,
		codec:        codec,
		principals:   principals,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		issueRetries: DefaultConfig().IssueRetries,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Issue creates a new access/refresh pair for the user and persists the
// refresh token as a session record. Called on registration and login.
func (l *Lifecycle) Issue(ctx context.Context, userID uuid.UUID, deviceInfo string) (TokenPair, error) {
	return l.issuePair(ctx, userID, deviceInfo)
}

// Rotate exchanges a presented refresh token for a new access/refresh pair.
// One refresh token is usable exactly once: the consumed record is deleted
// before the replacement is inserted, so a crash in between forces re-login
// rather than leaving two valid tokens.
//
// The step order is load-bearing. The signature check precedes the store
// lookup so forged tokens are rejected cheaply; a valid signature with no
// store record is a reuse signal that revokes every session for the subject
// before any failure is surfaced.
func (l *Lifecycle) Rotate(ctx context.Context, presented, deviceInfo string) (TokenPair, error) {
	subject, err := l.codec.Verify(presented, authtoken.KindRefresh)
	if err != nil {
		// A record may still exist for an expired-but-stored token; clean it
		// up best-effort before rejecting.
		if _, derr := l.store.DeleteByToken(ctx, presented); derr != nil {
			l.log.WarnContext(ctx, "failed to remove stale refresh token record", "error", derr)
		}
		l.log.InfoContext(ctx, "refresh token rejected", "reason", err.Error())
		return TokenPair{}, errors.Join(ErrRefreshInvalid, err)
	}

	record, err := l.store.FindByToken(ctx, presented)
	if errors.Is(err, ErrSessionNotFound) {
		// Valid signature, no record: the token was already consumed or
		// revoked. Either an attacker replayed a captured token or the
		// client is broken; both warrant forcing re-login everywhere.
		return TokenPair{}, l.reuseDetected(ctx, subject)
	}
	if err != nil {
		return TokenPair{}, errors.Join(ErrStoreUnavailable, err)
	}

	exists, err := l.principals.PrincipalExists(ctx, subject)
	if err != nil {
		return TokenPair{}, err
	}
	if !exists {
		if _, derr := l.store.DeleteByUser(ctx, subject); derr != nil {
			return TokenPair{}, errors.Join(ErrStoreUnavailable, derr)
		}
		l.log.WarnContext(ctx, "refresh token subject no longer exists, sessions revoked", "user_id", subject)
		return TokenPair{}, ErrUserNotFound
	}

	// The rotation itself. The affected count decides races between
	// concurrent rotations of the same token: exactly one caller removes the
	// record, every other caller lands in the reuse branch.
	n, err := l.store.DeleteByToken(ctx, presented)
	if err != nil {
		return TokenPair{}, errors.Join(ErrStoreUnavailable, err)
	}
	if n == 0 {
		return TokenPair{}, l.reuseDetected(ctx, subject)
	}

	// Caller-supplied device info wins; otherwise the consumed record's value
	// carries forward.
	if deviceInfo == "" {
		deviceInfo = record.DeviceInfo
	}

	return l.issuePair(ctx, subject, deviceInfo)
}

// Revoke deletes the session for the token. Idempotent: revoking an already
// deleted, expired, or never-issued token still succeeds, so logout cannot
// fail from the user's point of view.
func (l *Lifecycle) Revoke(ctx context.Context, refreshToken string) error {
	if _, err := l.store.DeleteByToken(ctx, refreshToken); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAll deletes every session owned by the user and returns how many were
// removed. Used for "logout everywhere", as the theft response, and before
// account deletion to avoid orphaned records.
func (l *Lifecycle) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := l.store.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return n, nil
}

// ListSessions returns the user's active sessions, newest first. The raw
// token value is never exposed.
func (l *Lifecycle) ListSessions(ctx context.Context, userID uuid.UUID) ([]Info, error) {
	records, err := l.store.ListActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	infos := make([]Info, len(records))
	for i := range records {
		infos[i] = records[i].Info()
	}
	return infos, nil
}

// issuePair generates both tokens and inserts the session record, retrying
// with fresh randomness if the token collides with an existing record. The
// random jti makes collisions effectively unreachable, so the retry budget is
// a formality rather than a hot path.
func (l *Lifecycle) issuePair(ctx context.Context, userID uuid.UUID, deviceInfo string) (TokenPair, error) {
	for range l.issueRetries {
		access, err := l.codec.IssueAccess(userID)
		if err != nil {
			return TokenPair{}, err
		}

		refresh, expiresAt, err := l.codec.IssueRefresh(userID)
		if err != nil {
			return TokenPair{}, err
		}

		err = l.store.Insert(ctx, New(userID, refresh, deviceInfo, expiresAt))
		if errors.Is(err, ErrDuplicateToken) {
			l.log.WarnContext(ctx, "refresh token collision, re-issuing", "user_id", userID)
			continue
		}
		if err != nil {
			return TokenPair{}, errors.Join(ErrStoreUnavailable, err)
		}

		return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
	}

	return TokenPair{}, ErrDuplicateToken
}

// reuseDetected is the theft response: revoke everything the subject owns,
// then fail. The bulk revocation is part of the contract, not cleanup; if it
// cannot be performed the store failure is surfaced instead.
func (l *Lifecycle) reuseDetected(ctx context.Context, subject uuid.UUID) error {
	revoked, err := l.store.DeleteByUser(ctx, subject)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	l.log.WarnContext(ctx, "refresh token reuse detected, all sessions revoked",
		"user_id", subject, "revoked", revoked)
	return ErrTokenReused
}
