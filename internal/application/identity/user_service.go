package identity

import (
	"context"

	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService answers account questions that need no authentication
type UserService struct {
	users  identity.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// CheckUsername validates a candidate username and reports whether it is free.
// Length is checked before charset, and both before the store is queried.
func (s *UserService) CheckUsername(ctx context.Context, username string) (*UsernameAvailability, error) {
	if err := identity.ValidateUsername(username); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to check username availability", zap.Error(err))
		return nil, shared.ErrInternal
	}

	result := &UsernameAvailability{Username: username, Available: !taken, Message: MsgUsernameAvailable}
	if taken {
		result.Message = MsgUsernameTaken
	}
	return result, nil
}
