package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/odyssey/backend/internal/domain/shared"
	"golang.org/x/text/unicode/norm"
)

const (
	PasswordMinLength = 6
	PasswordMaxLength = 128
	NameMaxLength     = 50
	UsernameMinLength = 3
	UsernameMaxLength = 30
)

// Validation messages returned to clients verbatim.
const (
	MsgPasswordTooShort        = "Password must be at least 6 characters long"
	MsgPasswordTooLong         = "Password must be less than 128 characters"
	MsgPasswordWeakComposition = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	MsgUsernameLength          = "Username must be between 3 and 30 characters"
	MsgUsernameCharset         = "Username can only contain letters, numbers, and underscores"
)

var (
	emailRegex = regexp.MustCompile(
		"^[a-zA-Z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-zA-Z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
			"@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\\.)+[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$",
	)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// PasswordFailure names the first rule a password broke.
type PasswordFailure int

const (
	PasswordOK PasswordFailure = iota
	PasswordTooShort
	PasswordTooLong
	PasswordWeakComposition
)

func (f PasswordFailure) String() string {
	switch f {
	case PasswordOK:
		return "ok"
	case PasswordTooShort:
		return "too_short"
	case PasswordTooLong:
		return "too_long"
	case PasswordWeakComposition:
		return "weak_composition"
	default:
		return "unknown"
	}
}

// PasswordValidation is the outcome of ValidatePassword. A failed check is a
// value, not an error.
type PasswordValidation struct {
	Valid   bool
	Failure PasswordFailure
	Message string
}

// ValidateEmail reports whether s is a syntactically acceptable address.
func ValidateEmail(s string) bool {
	if s == "" || strings.Contains(s, "..") {
		return false
	}
	return emailRegex.MatchString(s)
}

// ValidatePassword checks length first, then composition, and reports the
// first rule that fails.
func ValidatePassword(s string) PasswordValidation {
	n := utf8.RuneCountInString(s)
	switch {
	case n < PasswordMinLength:
		return PasswordValidation{Failure: PasswordTooShort, Message: MsgPasswordTooShort}
	case n > PasswordMaxLength:
		return PasswordValidation{Failure: PasswordTooLong, Message: MsgPasswordTooLong}
	}

	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return PasswordValidation{Failure: PasswordWeakComposition, Message: MsgPasswordWeakComposition}
	}
	return PasswordValidation{Valid: true, Failure: PasswordOK}
}

// ValidatePasswordMatch is an exact, case-sensitive comparison.
func ValidatePasswordMatch(password, confirm string) bool {
	return password == confirm
}

// ValidateName reports whether s has between 1 and 50 characters.
func ValidateName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= NameMaxLength
}

// SanitizeInput trims leading and trailing whitespace. Inner whitespace is kept.
func SanitizeInput(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeName sanitizes s and converts it to Unicode NFC so composed and
// decomposed spellings measure the same.
func NormalizeName(s string) string {
	return norm.NFC.String(SanitizeInput(s))
}

// ValidateUsername checks length before charset; the first broken rule wins.
func ValidateUsername(s string) error {
	n := utf8.RuneCountInString(s)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return shared.NewValidationError(MsgUsernameLength)
	}
	if !usernameRegex.MatchString(s) {
		return shared.NewValidationError(MsgUsernameCharset)
	}
	return nil
}
