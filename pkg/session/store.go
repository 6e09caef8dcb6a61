package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistent record of issued refresh tokens, keyed by token
// value and indexed by owning user and expiry. Every operation is a single
// atomic statement against the backing store; deletes report the affected
// count so concurrent callers can tell who actually removed a record.
type Store interface {
	// Insert stores a new session. Returns ErrDuplicateToken if a record with
	// the same token already exists.
	Insert(ctx context.Context, s *Session) error

	// FindByToken returns the session for the token, or ErrSessionNotFound.
	FindByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByToken removes the session for the token and returns the number
	// of records removed (0 or 1). Removing a non-existent token is not an
	// error.
	DeleteByToken(ctx context.Context, token string) (int64, error)

	// DeleteByUser removes every session owned by the user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired removes every session with ExpiresAt before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// ListActiveByUser returns the user's unexpired sessions, newest first.
	ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error)

	// CountAll returns the total number of stored sessions, expired included.
	CountAll(ctx context.Context) (int64, error)

	// CountActive returns the number of sessions with ExpiresAt after now.
	CountActive(ctx context.Context, now time.Time) (int64, error)
}
