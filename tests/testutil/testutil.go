// Package testutil builds the complete auth API for tests outside the http
// packages: client tests run against it and integration tests swap in real
// repositories and redis backed state.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/odyssey/backend/internal/application/identity"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/infrastructure/auth"
	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/persistence/memory"
	"github.com/odyssey/backend/internal/interfaces/http/handler"
	"github.com/odyssey/backend/internal/interfaces/http/middleware"
	"github.com/odyssey/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Password satisfies the password policy
const Password = "Password123"

// Config returns a configuration with test signing keys and no rate limits
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "odyssey", Env: "test"},
		JWT: config.JWTConfig{
			Secret:                 "test-secret-key-32-characters-long",
			RefreshSecret:          "test-refresh-secret-32-characters",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "odyssey-test",
		},
	}
}

// API holds the parts of a test server. Zero fields get in-memory defaults.
type API struct {
	Config         *config.Config
	Logger         *zap.Logger
	Users          identity.UserRepository
	Tokens         identity.RefreshTokenRepository
	Blacklist      auth.TokenBlacklist
	AuthLimiter    middleware.Limiter
	RefreshLimiter middleware.Limiter
	HealthChecks   []handler.HealthCheck

	JWT *auth.JWTService
}

// Handler wires the API through router.NewEngine
func (a *API) Handler(t *testing.T) http.Handler {
	t.Helper()
	if a.Config == nil {
		a.Config = Config()
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Users == nil {
		a.Users = memory.NewUserRepository()
	}
	if a.Tokens == nil {
		a.Tokens = memory.NewRefreshTokenRepository()
	}
	if a.Blacklist == nil {
		a.Blacklist = auth.NewInMemoryTokenBlacklist()
	}
	if a.AuthLimiter == nil && a.Config.HTTP.AuthRateLimitEnabled {
		a.AuthLimiter = middleware.NewMemoryLimiter(a.Config.HTTP.AuthRateLimitRequests, a.Config.HTTP.AuthRateLimitWindow)
	}
	if a.RefreshLimiter == nil && a.Config.HTTP.AuthRateLimitEnabled && a.Config.HTTP.RefreshRateLimitRequests > 0 {
		a.RefreshLimiter = middleware.NewMemoryLimiter(a.Config.HTTP.RefreshRateLimitRequests, a.Config.HTTP.RefreshRateLimitWindow)
	}
	a.JWT = auth.NewJWTService(a.Config.JWT)

	authService := appidentity.NewAuthService(a.Users, a.Tokens, auth.NewBcryptHasher(4), a.JWT, a.Blacklist, a.Logger)
	engine, err := router.NewEngine(router.Deps{
		Config:      a.Config,
		Logger:      a.Logger,
		JWT:         a.JWT,
		Blacklist:   a.Blacklist,
		Auth:        handler.NewAuthHandler(authService),
		User:        handler.NewUserHandler(appidentity.NewUserService(a.Users, a.Logger)),
		System:      handler.NewSystemHandler("test", a.HealthChecks...),
		AuthLimiter:    a.AuthLimiter,
		RefreshLimiter: a.RefreshLimiter,
	})
	require.NoError(t, err)
	return engine
}

// Server serves the API over a real listener closed at test cleanup
func (a *API) Server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(a.Handler(t))
	t.Cleanup(srv.Close)
	return srv
}

// NewServer starts an in-memory API server with the default configuration
func NewServer(t *testing.T) *httptest.Server {
	t.Helper()
	return (&API{}).Server(t)
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}
