package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("lowercases and trims email", func(t *testing.T) {
		user, err := NewUser("  Test@Example.COM ", "test_1", "hash")

		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
		assert.NotEqual(t, user.ID.String(), "00000000-0000-0000-0000-000000000000")
		assert.False(t, user.IsEmailVerified)
		assert.Nil(t, user.LastLoginAt)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUser("not-an-email", "test_1", "hash")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		_, err := NewUser("test@example.com", "x", "hash")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("requires password hash", func(t *testing.T) {
		_, err := NewUser("test@example.com", "test_1", "")
		assert.Error(t, err)
	})
}

func TestUser_SetNames(t *testing.T) {
	user, err := NewUser("test@example.com", "test_1", "hash")
	require.NoError(t, err)

	require.NoError(t, user.SetNames("  Ada ", "Lovelace"))
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)

	err = user.SetNames(strings.Repeat("x", 51), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "First name")

	err = user.SetNames("", strings.Repeat("y", 51))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Last name")
}

func TestUser_RecordLogin(t *testing.T) {
	user, err := NewUser("test@example.com", "test_1", "hash")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user.RecordLogin(at)

	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, at, *user.LastLoginAt)
	assert.Equal(t, at, user.UpdatedAt)
}

func TestGenerateUsername(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("uses local part", func(t *testing.T) {
		name := GenerateUsername("john.doe@example.com", at)
		assert.True(t, strings.HasPrefix(name, "johndoe_"))
		assert.NoError(t, ValidateUsername(name))
	})

	t.Run("truncates long local parts", func(t *testing.T) {
		name := GenerateUsername(strings.Repeat("a", 64)+"@example.com", at)
		assert.NoError(t, ValidateUsername(name))
		assert.LessOrEqual(t, len(name), UsernameMaxLength)
	})

	t.Run("falls back when local part has no usable characters", func(t *testing.T) {
		name := GenerateUsername("+++@example.com", at)
		assert.True(t, strings.HasPrefix(name, "user_"))
		assert.NoError(t, ValidateUsername(name))
	})

	t.Run("different instants differ", func(t *testing.T) {
		a := GenerateUsername("x@example.com", at)
		b := GenerateUsername("x@example.com", at.Add(time.Millisecond))
		assert.NotEqual(t, a, b)
	})
}

func TestRefreshToken_Revoke(t *testing.T) {
	user, err := NewUser("test@example.com", "test_1", "hash")
	require.NoError(t, err)

	token := NewRefreshToken(user.ID, "abc", time.Now().Add(time.Hour))
	assert.False(t, token.IsRevoked())
	assert.False(t, token.IsExpired(time.Now()))
	assert.True(t, token.IsExpired(time.Now().Add(2*time.Hour)))

	token.Revoke(RevokedReasonRefreshed, time.Now())
	token.Revoke(RevokedReasonLogout, time.Now())

	assert.True(t, token.IsRevoked())
	assert.Equal(t, RevokedReasonRefreshed, token.RevokedReason)
}
