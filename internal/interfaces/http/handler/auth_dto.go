package handler

import (
	appidentity "github.com/odyssey/backend/internal/application/identity"
)

// Requests carry no "required" tags: presence is checked by the service so
// clients get the same field specific messages whichever layer catches them.
// The max bounds only stop oversized input before it is hashed.

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email           string `json:"email" binding:"max=320" example:"jane@example.com"`
	Password        string `json:"password" binding:"max=1024" example:"Secret123"`
	ConfirmPassword string `json:"confirmPassword" binding:"max=1024" example:"Secret123"`
	FirstName       string `json:"firstName" binding:"max=200" example:"Jane"`
	LastName        string `json:"lastName" binding:"max=200" example:"Doe"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"max=320" example:"jane@example.com"`
	Password string `json:"password" binding:"max=1024" example:"Secret123"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"max=4096"`
}

// LogoutRequest represents the optional body of a logout
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"max=4096"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User         appidentity.UserInfo `json:"user"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

// TokenResponse is returned by refresh
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CurrentUserResponse is returned by /auth/me
type CurrentUserResponse struct {
	User appidentity.UserInfo `json:"user"`
}

func newAuthResponse(r *appidentity.AuthResult) AuthResponse {
	return AuthResponse{
		User:         r.User,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}
