package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is an account principal. The password hash never leaves the auth
// module; responses expose at most the ID and email.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Storage defines the user persistence operations the auth module needs.
type Storage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// PrincipalResolver adapts Storage to the session layer's existence check.
// A missing user is a definitive "no", not an error; storage failures
// propagate so the session layer can distinguish outage from deletion.
type PrincipalResolver struct {
	storage Storage
}

// NewPrincipalResolver wraps user storage for use by session.NewLifecycle.
func NewPrincipalResolver(storage Storage) *PrincipalResolver {
	return &PrincipalResolver{storage: storage}
}

func (r *PrincipalResolver) PrincipalExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := r.storage.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
