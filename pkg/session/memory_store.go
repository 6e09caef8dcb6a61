package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-process map. Suitable for tests and
// single-process deployments; everything else should use one of the
// persistent backends.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory session store. A positive
// cleanupInterval starts a background sweep of expired records; pass 0 to
// disable it (the ExpirySweeper can drive cleanup instead).
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Insert stores a new session, enforcing token uniqueness.
func (m *MemoryStore) Insert(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" || s.UserID == uuid.Nil {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.Token]; exists {
		return ErrDuplicateToken
	}

	cp := *s
	m.sessions[s.Token] = &cp
	return nil
}

// FindByToken retrieves a session by token. Expired records are still
// returned; logical expiry is the caller's concern until a sweep removes them.
func (m *MemoryStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[token]
	if !exists {
		return nil, ErrSessionNotFound
	}

	cp := *s
	return &cp, nil
}

// DeleteByToken removes the session for the token and reports whether a
// record was actually removed.
func (m *MemoryStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[token]; !exists {
		return 0, nil
	}

	delete(m.sessions, token)
	return 1, nil
}

// DeleteByUser removes every session owned by the user.
func (m *MemoryStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes every session that expired before now.
func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// ListActiveByUser returns the user's unexpired sessions, newest first.
func (m *MemoryStore) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			out = append(out, *s)
		}
	}

	sortSessionsNewestFirst(out)
	return out, nil
}

// CountAll returns the total number of stored sessions.
func (m *MemoryStore) CountAll(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.sessions)), nil
}

// CountActive returns the number of unexpired sessions.
func (m *MemoryStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, s := range m.sessions {
		if s.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
			close(m.done)
		}
	})
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_, _ = m.DeleteExpired(context.Background(), time.Now())
		case <-m.done:
			return
		}
	}
}

var _ Store = (*MemoryStore)(nil)
