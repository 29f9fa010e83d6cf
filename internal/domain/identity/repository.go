package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository is the storage contract for principals.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	// FindByID and FindByEmail only return non-removed users.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// CredentialRepository is the storage contract for session credentials.
type CredentialRepository interface {
	Create(ctx context.Context, cred *SessionCredential) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*SessionCredential, error)
	// SaveSessions persists the logged-session set only; last write wins.
	SaveSessions(ctx context.Context, cred *SessionCredential) error
	Update(ctx context.Context, cred *SessionCredential) error
}
