package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/budgetkit/pkg/session"
)

const minPasswordLength = 8

// SessionManager is the slice of the session lifecycle the auth module uses.
// Satisfied by *session.Lifecycle.
type SessionManager interface {
	Issue(ctx context.Context, userID uuid.UUID, deviceInfo string) (session.TokenPair, error)
	Rotate(ctx context.Context, presented, deviceInfo string) (session.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]session.Info, error)
}

// Service implements email/password authentication on top of the session
// lifecycle: credentials establish who the caller is, the lifecycle decides
// which tokens they hold.
type Service struct {
	storage    Storage
	sessions   SessionManager
	log        *slog.Logger
	bcryptCost int
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for authentication events.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBcryptCost overrides the bcrypt cost, mainly to speed up tests.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// NewService creates the auth service over user storage and a session manager.
func NewService(storage Storage, sessions SessionManager, opts ...ServiceOption) *Service {
	s := &Service{
		storage:    storage,
		sessions:   sessions,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		bcryptCost: bcrypt.DefaultCost,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates a new account and immediately issues a token pair, so
// registration doubles as the first login.
func (s *Service) Register(ctx context.Context, email, password, deviceInfo string) (session.TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return session.TokenPair{}, err
	}
	if len(password) < minPasswordLength {
		return session.TokenPair{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return session.TokenPair{}, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return session.TokenPair{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.sessions.Issue(ctx, user.ID, deviceInfo)
}

// Login verifies credentials and issues a fresh token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password, deviceInfo string) (session.TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return session.TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		// Burn a comparison anyway so the response time does not leak
		// whether the email is registered.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return session.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return session.TokenPair{}, ErrInvalidCredentials
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return s.sessions.Issue(ctx, user.ID, deviceInfo)
}

// Refresh rotates a refresh token into a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken, deviceInfo string) (session.TokenPair, error) {
	return s.sessions.Rotate(ctx, refreshToken, deviceInfo)
}

// Logout revokes the presented refresh token. Always succeeds from the
// caller's point of view unless the store is down.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every session of the user.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID)
}

// Sessions lists the user's active sessions, newest first.
func (s *Service) Sessions(ctx context.Context, userID uuid.UUID) ([]session.Info, error) {
	return s.sessions.ListSessions(ctx, userID)
}

// DeleteAccount revokes all sessions, then removes the user. The order
// matters: a surviving refresh token for a deleted user would otherwise keep
// hitting the missing-principal branch on every rotation.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	if err := s.storage.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

// dummyHash is a valid bcrypt hash of a random string, used to equalize
// response time for unknown emails.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
