package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/odyssey/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService_CheckUsername(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	taken, err := identity.NewUser("taken@example.com", "taken_name", "hash")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, taken))

	svc := NewUserService(users, zap.NewNop())

	t.Run("available", func(t *testing.T) {
		result, err := svc.CheckUsername(ctx, "fresh_name")
		require.NoError(t, err)
		assert.Equal(t, "fresh_name", result.Username)
		assert.True(t, result.Available)
		assert.Equal(t, MsgUsernameAvailable, result.Message)
	})

	t.Run("taken regardless of case", func(t *testing.T) {
		result, err := svc.CheckUsername(ctx, "TAKEN_NAME")
		require.NoError(t, err)
		assert.False(t, result.Available)
		assert.Equal(t, MsgUsernameTaken, result.Message)
	})

	t.Run("length is checked before charset", func(t *testing.T) {
		_, err := svc.CheckUsername(ctx, "a!")
		assertDomainError(t, err, shared.CodeValidation, identity.MsgUsernameLength)

		_, err = svc.CheckUsername(ctx, "bad name")
		assertDomainError(t, err, shared.CodeValidation, identity.MsgUsernameCharset)
	})

	t.Run("surrounding whitespace is not trimmed", func(t *testing.T) {
		_, err := svc.CheckUsername(ctx, " abc")
		assertDomainError(t, err, shared.CodeValidation, identity.MsgUsernameCharset)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByUsername", mock.Anything, "someone").Return(false, errors.New("timeout"))

		_, err := NewUserService(repo, zap.NewNop()).CheckUsername(ctx, "someone")
		assert.ErrorIs(t, err, shared.ErrInternal)
		repo.AssertExpectations(t)
	})

	t.Run("invalid names never reach the store", func(t *testing.T) {
		repo := new(MockUserRepository)
		_, err := NewUserService(repo, zap.NewNop()).CheckUsername(ctx, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
		repo.AssertNotCalled(t, "ExistsByUsername", mock.Anything, mock.Anything)
	})
}
