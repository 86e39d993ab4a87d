package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachable points at a port nothing listens on
var unreachable = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestNewRedisClient_Disabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Enabled: false})
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrRedisDisabled)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Run("without fallback returns connection error", func(t *testing.T) {
		client, err := NewRedisClient(context.Background(), unreachable,
			WithPingTimeout(500*time.Millisecond))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRedisDisabled)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "127.0.0.1:1")
	})

	t.Run("with fallback reports disabled and warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)

		client, err := NewRedisClient(context.Background(), unreachable,
			WithPingTimeout(500*time.Millisecond),
			WithInMemoryFallback(true),
			WithLogger(zap.New(core)),
		)
		assert.Nil(t, client)
		assert.ErrorIs(t, err, ErrRedisDisabled)
		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "falling back to in-memory")
	})
}

func TestNewRedisClient_Connected(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)

	client, err := NewRedisClient(context.Background(),
		config.RedisConfig{Enabled: true, Host: s.Host(), Port: port, DB: 0},
		WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.Equal(t, 1, logs.FilterMessage("Connected to Redis").Len())
}
