package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/odyssey/backend/internal/domain/shared"
	"github.com/odyssey/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key fits in the current window.
// When it does not, retryAfter tells the caller how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	Limit() int
}

// MemoryLimiter is a fixed window limiter held in process memory
type MemoryLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	entries     map[string]*windowEntry
	lastCleanup time.Time
	now         func() time.Time
}

type windowEntry struct {
	count int
	reset time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window and key
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:       limit,
		window:      window,
		entries:     make(map[string]*windowEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow implements Limiter. Expired windows are swept at most once per window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) >= l.window {
		for k, e := range l.entries {
			if now.After(e.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) {
		l.entries[key] = &windowEntry{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}
	if e.count >= l.limit {
		return false, max(e.reset.Sub(now), 0), nil
	}
	e.count++
	return true, 0, nil
}

// Limit implements Limiter
func (l *MemoryLimiter) Limit() int { return l.limit }

// defaultRedisLimiterPrefix namespaces limiter keys
const defaultRedisLimiterPrefix = "odyssey:rl:"

// fixedWindowScript counts the request and starts the window on the first hit
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

var errUnexpectedRedisReply = errors.New("unexpected rate limit reply from redis")

// RedisLimiter is a fixed window limiter shared by every instance behind the same redis
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a redis backed limiter. An empty prefix selects the default.
func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultRedisLimiterPrefix
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowMS := l.window.Milliseconds()
	if windowMS <= 0 {
		return false, 0, fmt.Errorf("invalid rate limit window %s", l.window)
	}

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowMS).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("run rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, errUnexpectedRedisReply
	}
	allowed, ok1 := res[0].(int64)
	ttlMS, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, errUnexpectedRedisReply
	}
	return allowed == 1, time.Duration(max(ttlMS, 0)) * time.Millisecond, nil
}

// Limit implements Limiter
func (l *RedisLimiter) Limit() int { return l.limit }

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)

// RateLimit limits requests per client IP. scope separates independent budgets
// that share one limiter store. Limiter errors let the request through.
func RateLimit(limiter Limiter, scope string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable, allowing request", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				shared.ErrRateLimited.Message,
				c.GetString(RequestIDContextKey),
			))
			return
		}
		c.Next()
	}
}
