package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/odyssey/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRefreshTokenRepository implements identity.RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewGormRefreshTokenRepository creates a new GormRefreshTokenRepository
func NewGormRefreshTokenRepository(db *gorm.DB) *GormRefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

// Create stores a newly issued token
func (r *GormRefreshTokenRepository) Create(ctx context.Context, token *identity.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(models.RefreshTokenModelFromDomain(token)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByHash looks a token up by its SHA-256 hash
func (r *GormRefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*identity.RefreshToken, error) {
	var model models.RefreshTokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return model.ToDomain(), nil
}

// Rotate revokes the old token and inserts next in one transaction. The
// conditional update guarantees only one of two concurrent rotations of the
// same token succeeds.
func (r *GormRefreshTokenRepository) Rotate(ctx context.Context, oldHash string, next *identity.RefreshToken, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RefreshTokenModel{}).
			Where("token_hash = ? AND revoked_at IS NULL", oldHash).
			Updates(map[string]any{"revoked_at": time.Now().UTC(), "revoked_reason": reason})
		if result.Error != nil {
			return fmt.Errorf("revoke refresh token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return identity.ErrTokenReused
		}
		if err := tx.Create(models.RefreshTokenModelFromDomain(next)).Error; err != nil {
			return fmt.Errorf("create rotated refresh token: %w", err)
		}
		return nil
	})
}

// Revoke revokes a single live token
func (r *GormRefreshTokenRepository) Revoke(ctx context.Context, tokenHash, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefreshTokenModel{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Updates(map[string]any{"revoked_at": time.Now().UTC(), "revoked_reason": reason}).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token of a user
func (r *GormRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{"revoked_at": time.Now().UTC(), "revoked_reason": reason})
	if result.Error != nil {
		return 0, fmt.Errorf("revoke user refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired removes records past their expiry. Revoked rows are kept
// until then so a replayed token is still recognised as reuse.
func (r *GormRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before.UTC()).
		Delete(&models.RefreshTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

var _ identity.RefreshTokenRepository = (*GormRefreshTokenRepository)(nil)
