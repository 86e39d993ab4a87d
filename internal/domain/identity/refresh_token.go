package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/shared"
)

// Revocation reasons recorded on refresh tokens.
const (
	RevokedReasonRefreshed = "Token refreshed"
	RevokedReasonLogout    = "User logout"
	RevokedReasonReuse     = "Token reuse detected"
)

// ErrTokenReused is returned by RefreshTokenRepository.Rotate when the
// presented token was already revoked.
var ErrTokenReused = shared.NewAuthenticationError("Refresh token already used")

// RefreshToken is the server-side record of an issued refresh token. Only the
// token hash is stored.
type RefreshToken struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	TokenHash     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RevokedAt     *time.Time
	RevokedReason string
}

// NewRefreshToken creates a record for a freshly issued token.
func NewRefreshToken(userID uuid.UUID, tokenHash string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

// IsRevoked reports whether the token was revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the token is past its expiry at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Revoke marks the token revoked. Revoking twice keeps the first reason.
func (t *RefreshToken) Revoke(reason string, at time.Time) {
	if t.RevokedAt != nil {
		return
	}
	at = at.UTC()
	t.RevokedAt = &at
	t.RevokedReason = reason
}

// RefreshTokenRepository persists refresh token records keyed by hash.
type RefreshTokenRepository interface {
	// Create stores a newly issued token
	Create(ctx context.Context, token *RefreshToken) error

	// FindByHash returns shared.ErrNotFound when no record exists
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Rotate revokes oldHash and stores next in one atomic step. It returns
	// ErrTokenReused if oldHash was already revoked.
	Rotate(ctx context.Context, oldHash string, next *RefreshToken, reason string) error

	// Revoke revokes a single token; revoking an unknown token is not an error
	Revoke(ctx context.Context, tokenHash, reason string) error

	// RevokeAllForUser revokes every live token of the user and returns how many
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error)

	// DeleteExpired removes records that expired before the cutoff, revoked
	// or not, and returns how many were removed
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
