// Package user provides the user model resolved from the auth provider.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User models an authenticated account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Profile      map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines storage operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
