package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code", func(t *testing.T) {
		err := NewValidationError("Invalid email format")
		assert.True(t, errors.Is(err, ErrValidation))
		assert.False(t, errors.Is(err, ErrAuthenticationFailed))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("create user: %w", ErrAlreadyExists)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("errors.As extracts code and message", func(t *testing.T) {
		var wrapped error = fmt.Errorf("login: %w", NewAuthenticationError("Invalid email or password"))
		var de *DomainError
		assert.True(t, errors.As(wrapped, &de))
		assert.Equal(t, CodeAuthFailed, de.Code)
		assert.Equal(t, "Invalid email or password", de.Message)
	})
}
