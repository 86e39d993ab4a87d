package auth

import (
	"strings"
	"testing"

	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig(hasher string) config.AuthConfig {
	return config.AuthConfig{
		PasswordHasher: hasher,
		BcryptCost:     bcrypt.MinCost,
		Argon2Time:     1,
		Argon2Memory:   8 * 1024,
		Argon2Threads:  1,
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("StrongPass123")
	require.NoError(t, err)
	assert.NotEqual(t, "StrongPass123", hash)

	assert.NoError(t, h.Compare(hash, "StrongPass123"))
	assert.ErrorIs(t, h.Compare(hash, "strongpass123"), ErrPasswordMismatch)

	t.Run("passwords past 72 bytes", func(t *testing.T) {
		long := "Aa1" + strings.Repeat("x", 125)
		hash, err := h.Hash(long)
		require.NoError(t, err)

		assert.NoError(t, h.Compare(hash, long))
		assert.ErrorIs(t, h.Compare(hash, long[:127]+"y"), ErrPasswordMismatch)
		assert.ErrorIs(t, h.Compare(hash, long[:72]), ErrPasswordMismatch)
	})
}

func TestArgon2Hasher(t *testing.T) {
	h := NewArgon2Hasher(Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1})

	hash, err := h.Hash("StrongPass123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	assert.NoError(t, h.Compare(hash, "StrongPass123"))
	assert.ErrorIs(t, h.Compare(hash, "WrongPass123"), ErrPasswordMismatch)

	other, err := h.Hash("StrongPass123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ per hash")

	t.Run("rejects garbage", func(t *testing.T) {
		err := h.Compare("$argon2id$broken", "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}

func TestAdaptiveHasher(t *testing.T) {
	bcryptHasher := NewPasswordHasher(testAuthConfig(config.HasherBcrypt))
	argonHasher := NewPasswordHasher(testAuthConfig(config.HasherArgon2))

	bcryptHash, err := bcryptHasher.Hash("StrongPass123")
	require.NoError(t, err)
	argonHash, err := argonHasher.Hash("StrongPass123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(bcryptHash, "$2a$"))
	assert.True(t, strings.HasPrefix(argonHash, argon2Prefix))

	// either hasher verifies both formats
	for _, h := range []*AdaptiveHasher{bcryptHasher, argonHasher} {
		assert.NoError(t, h.Compare(bcryptHash, "StrongPass123"))
		assert.NoError(t, h.Compare(argonHash, "StrongPass123"))
		assert.ErrorIs(t, h.Compare(bcryptHash, "nope"), ErrPasswordMismatch)
		assert.ErrorIs(t, h.Compare(argonHash, "nope"), ErrPasswordMismatch)
	}
}
