package scheduler

import (
	"context"
	"time"

	"github.com/odyssey/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// Task names
const (
	TaskPurgeRefreshTokens = "purge_refresh_tokens"
	TaskPurgeBlacklist     = "purge_blacklist"
)

// BlacklistPurger is implemented by blacklists that keep entries in process
type BlacklistPurger interface {
	PurgeExpired(userTTL time.Duration) int
}

// PurgeRefreshTokens deletes refresh token rows that expired before now
func PurgeRefreshTokens(tokens identity.RefreshTokenRepository, now func() time.Time, logger *zap.Logger) Task {
	return func(ctx context.Context) error {
		n, err := tokens.DeleteExpired(ctx, now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("Purged expired refresh tokens", zap.Int64("count", n))
		}
		return nil
	}
}

// PurgeBlacklist drops blacklist entries older than userTTL
func PurgeBlacklist(purger BlacklistPurger, userTTL time.Duration, logger *zap.Logger) Task {
	return func(context.Context) error {
		if n := purger.PurgeExpired(userTTL); n > 0 {
			logger.Debug("Purged token blacklist entries", zap.Int("count", n))
		}
		return nil
	}
}
