package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultPingTimeout = 5 * time.Second

// ErrRedisDisabled is returned by NewRedisClient when redis.enabled is false.
var ErrRedisDisabled = errors.New("redis is disabled")

// ClientOption configures NewRedisClient
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger      *zap.Logger
	pingTimeout time.Duration
	fallback    bool
}

// WithLogger sets the logger used for connection diagnostics
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithPingTimeout bounds the initial connectivity check
func WithPingTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.pingTimeout = d
	}
}

// WithInMemoryFallback controls whether an unreachable server is reported as
// ErrRedisDisabled (callers then use in-memory stores) instead of an error.
// Default is false.
func WithInMemoryFallback(allow bool) ClientOption {
	return func(o *clientOptions) {
		o.fallback = allow
	}
}

// NewRedisClient creates a redis client and verifies the connection.
// The returned client is shared by the token blacklist, the auth rate limiter
// and the health check.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, opts ...ClientOption) (*redis.Client, error) {
	o := &clientOptions{
		logger:      zap.NewNop(),
		pingTimeout: defaultPingTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if !cfg.Enabled {
		return nil, ErrRedisDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  o.pingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if o.fallback {
			o.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
				"Blacklist and rate limit state will not be shared across instances.",
				zap.String("addr", cfg.Addr()),
				zap.Error(err),
			)
			return nil, ErrRedisDisabled
		}
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	o.logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return client, nil
}
