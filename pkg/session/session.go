package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Session is a persisted refresh-token record. One record exists per live or
// not-yet-swept refresh token. Records are never mutated in place: rotation
// deletes the consumed record and inserts a new one.
type Session struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Token      string    `json:"token"`
	DeviceInfo string    `json:"device_info,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// New creates a session record for a freshly issued refresh token.
func New(userID uuid.UUID, token, deviceInfo string, expiresAt time.Time) *Session {
	return &Session{
		ID:         uuid.New(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}
}

// IsExpired reports whether the session is logically dead at the given time.
// Expired records stay physically present until the sweeper removes them.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// Info returns the caller-visible view of the session. The token value is
// deliberately not included.
func (s *Session) Info() Info {
	return Info{
		ID:         s.ID,
		DeviceInfo: s.DeviceInfo,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	}
}

// Info describes an active session in listings exposed to users, e.g. a
// "manage devices" screen. It never carries the refresh token itself.
type Info struct {
	ID         uuid.UUID `json:"id"`
	DeviceInfo string    `json:"device_info,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// sortSessionsNewestFirst orders sessions by descending creation time, the
// order session listings are exposed in.
func sortSessionsNewestFirst(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}
