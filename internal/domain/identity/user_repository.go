package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence.
// Implementations enforce email and username uniqueness and report
// violations as shared.ErrAlreadyExists.
type UserRepository interface {
	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Create persists a new user
	Create(ctx context.Context, user *User) error

	// UpdateLastLogin stamps the last login time
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// ExistsByUsername checks if a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if an email is registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
