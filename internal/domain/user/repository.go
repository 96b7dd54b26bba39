package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user repository operations
type Repository interface {
	// Create fails with ErrUserAlreadyExists when the username is taken and
	// ErrEmailAlreadyExists when the email is.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetCredentials is the only read that includes the password hash.
	GetCredentials(ctx context.Context, username string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
}
