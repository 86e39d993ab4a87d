package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
)

// Messages returned to clients verbatim
const (
	MsgRegisterFieldsRequired = "Email, password, and confirmPassword are required"
	MsgInvalidEmail           = "Invalid email format"
	MsgPasswordsDoNotMatch    = "Passwords do not match"
	MsgFirstNameLength        = "First name must be between 1 and 50 characters"
	MsgLastNameLength         = "Last name must be between 1 and 50 characters"
	MsgEmailTaken             = "User with this email already exists"
	MsgLoginFieldsRequired    = "Email and password are required"
	MsgInvalidCredentials     = "Invalid email or password"
	MsgRefreshTokenRequired   = "Refresh token is required"
	MsgInvalidRefreshToken    = "Invalid or expired refresh token"
	MsgUserNotFound           = "User not found"
	MsgUsernameAvailable      = "Username is available"
	MsgUsernameTaken          = "Username is already taken"
)

// RegisterInput contains input for registration
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// LoginInput contains input for login
type LoginInput struct {
	Email    string
	Password string
}

// RefreshTokenInput contains input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains input for logout. Both tokens are optional.
type LogoutInput struct {
	AccessToken  string
	RefreshToken string
}

// UserInfo is the public view of a user. The password hash is never part of it.
type UserInfo struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewUserInfo converts a domain user
func NewUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User                  UserInfo  `json:"user"`
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// TokenResult is returned by Refresh
type TokenResult struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// UsernameAvailability is returned by CheckUsername
type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
