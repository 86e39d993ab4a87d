package identity

import (
	"strings"
	"testing"

	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"test@example.com",
		"first.last@sub.example.co",
		"user+tag@example.io",
		"o'neil@example.org",
		"a@b.cd",
	}
	for _, email := range valid {
		t.Run("accepts "+email, func(t *testing.T) {
			assert.True(t, ValidateEmail(email))
		})
	}

	invalid := map[string]string{
		"empty":              "",
		"no at":              "testexample.com",
		"missing local":      "@example.com",
		"missing domain":     "test@",
		"missing tld":        "test@example",
		"double dot local":   "te..st@example.com",
		"double dot domain":  "test@example..com",
		"leading dot":        ".test@example.com",
		"trailing dot local": "test.@example.com",
		"space":              "te st@example.com",
		"hyphen label edge":  "test@-example.com",
	}
	for name, email := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			assert.False(t, ValidateEmail(email))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		failure  PasswordFailure
		message  string
	}{
		{"valid", "StrongPass123", PasswordOK, ""},
		{"minimum length", "Abcde1", PasswordOK, ""},
		{"too short", "Weak1", PasswordTooShort, MsgPasswordTooShort},
		{"too short wins over composition", "abc", PasswordTooShort, MsgPasswordTooShort},
		{"too long", "Aa1" + strings.Repeat("x", 126), PasswordTooLong, MsgPasswordTooLong},
		{"exactly max", "Aa1" + strings.Repeat("x", 125), PasswordOK, ""},
		{"missing upper", "lowercase123", PasswordWeakComposition, MsgPasswordWeakComposition},
		{"missing lower", "UPPERCASE123", PasswordWeakComposition, MsgPasswordWeakComposition},
		{"missing digit", "NoDigitsHere", PasswordWeakComposition, MsgPasswordWeakComposition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePassword(tt.password)
			assert.Equal(t, tt.failure == PasswordOK, result.Valid)
			assert.Equal(t, tt.failure, result.Failure)
			assert.Equal(t, tt.message, result.Message)
		})
	}

	t.Run("length counts characters not bytes", func(t *testing.T) {
		result := ValidatePassword("Aa1ööö")
		assert.True(t, result.Valid)
	})

	t.Run("composition counts ASCII classes only", func(t *testing.T) {
		for _, pw := range []string{"Éabcd1", "abcdeF١", "Ää1ööö"} {
			result := ValidatePassword(pw)
			assert.False(t, result.Valid, pw)
			assert.Equal(t, PasswordWeakComposition, result.Failure, pw)
		}
	})
}

func TestValidatePasswordMatch(t *testing.T) {
	assert.True(t, ValidatePasswordMatch("Secret123", "Secret123"))
	assert.False(t, ValidatePasswordMatch("Secret123", "secret123"))
	assert.False(t, ValidatePasswordMatch("Secret123", "Secret123 "))
}

func TestValidateName(t *testing.T) {
	assert.False(t, ValidateName(""))
	assert.True(t, ValidateName("A"))
	assert.True(t, ValidateName(strings.Repeat("n", 50)))
	assert.False(t, ValidateName(strings.Repeat("n", 51)))
	assert.True(t, ValidateName(strings.Repeat("é", 50)))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeInput("  hello world \t\n"))
	assert.Equal(t, "a  b", SanitizeInput("a  b"))
	assert.Equal(t, "", SanitizeInput("   "))
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Jose\u0301"
	assert.Equal(t, "Jos\u00e9", NormalizeName("  "+decomposed+" "))
	assert.True(t, ValidateName(NormalizeName(decomposed)))
}

func TestValidateUsername(t *testing.T) {
	t.Run("length checked before charset", func(t *testing.T) {
		err := ValidateUsername("a!")
		require.Error(t, err)
		assert.Equal(t, MsgUsernameLength, err.Error())
	})

	t.Run("too short", func(t *testing.T) {
		err := ValidateUsername("ab")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, MsgUsernameLength, err.Error())
	})

	t.Run("too long", func(t *testing.T) {
		err := ValidateUsername(strings.Repeat("a", 31))
		require.Error(t, err)
		assert.Equal(t, MsgUsernameLength, err.Error())
	})

	t.Run("bad charset", func(t *testing.T) {
		err := ValidateUsername("a!b")
		require.Error(t, err)
		assert.Equal(t, MsgUsernameCharset, err.Error())
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateUsername("valid_user123"))
		assert.NoError(t, ValidateUsername(strings.Repeat("a", 30)))
	})
}
