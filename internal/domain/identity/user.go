package identity

import (
	"strconv"
	"strings"
	"time"

	"github.com/odyssey/backend/internal/domain/shared"
)

// usernameStemLength keeps generated usernames within UsernameMaxLength once
// the "_" separator and a base36 millisecond suffix are appended.
const usernameStemLength = 16

// User is an account holder. Users are never hard-deleted.
type User struct {
	shared.BaseEntity
	Email           string
	Username        string
	PasswordHash    string
	FirstName       string
	LastName        string
	IsEmailVerified bool
	LastLoginAt     *time.Time
}

// NewUser creates a user from already validated input. The email is stored
// lowercased so lookups are case-insensitive.
func NewUser(email, username, passwordHash string) (*User, error) {
	email = strings.ToLower(SanitizeInput(email))
	if !ValidateEmail(email) {
		return nil, shared.NewValidationError("Invalid email format")
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, shared.NewValidationError("Password hash is required")
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

// SetNames sets optional first and last names. Empty values clear the field.
func (u *User) SetNames(firstName, lastName string) error {
	firstName = NormalizeName(firstName)
	lastName = NormalizeName(lastName)
	if firstName != "" && !ValidateName(firstName) {
		return shared.NewValidationError("First name must be between 1 and 50 characters")
	}
	if lastName != "" && !ValidateName(lastName) {
		return shared.NewValidationError("Last name must be between 1 and 50 characters")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Touch(time.Now().UTC())
	return nil
}

// RecordLogin stamps the last successful login.
func (u *User) RecordLogin(at time.Time) {
	at = at.UTC()
	u.LastLoginAt = &at
	u.Touch(at)
}

// MarkEmailVerified flips the verification flag.
func (u *User) MarkEmailVerified() {
	u.IsEmailVerified = true
	u.Touch(time.Now().UTC())
}

// GenerateUsername derives a username from the email local part plus a
// timestamp suffix. The result always passes ValidateUsername.
func GenerateUsername(email string, at time.Time) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}

	var b strings.Builder
	for _, r := range local {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == usernameStemLength {
				break
			}
		}
	}
	stem := b.String()
	if stem == "" {
		stem = "user"
	}
	return stem + "_" + strconv.FormatInt(at.UnixMilli(), 36)
}
