package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appidentity "github.com/odyssey/backend/internal/application/identity"
	"github.com/odyssey/backend/internal/infrastructure/auth"
	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/persistence/memory"
	"github.com/odyssey/backend/internal/interfaces/http/dto"
	"github.com/odyssey/backend/internal/interfaces/http/handler"
	"github.com/odyssey/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "odyssey", Env: "test"},
		JWT: config.JWTConfig{
			Secret:                 "test-secret-key-32-characters-long",
			RefreshSecret:          "test-refresh-secret-32-characters",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "odyssey-test",
		},
		HTTP: config.HTTPConfig{
			MaxBodySize:           1 << 10,
			AuthRateLimitEnabled:  true,
			AuthRateLimitRequests: 3,
			AuthRateLimitWindow:   time.Minute,
			CORSAllowOrigins:      []string{"https://app.example.com"},
		},
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, customize ...func(*Deps)) http.Handler {
	t.Helper()
	log := zap.NewNop()
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()
	users := memory.NewUserRepository()

	authService := appidentity.NewAuthService(users, memory.NewRefreshTokenRepository(),
		auth.NewBcryptHasher(4), jwtService, blacklist, log)

	deps := Deps{
		Config:        cfg,
		Logger:        log,
		JWT:           jwtService,
		Blacklist:     blacklist,
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(appidentity.NewUserService(users, log)),
		System:        handler.NewSystemHandler("test"),
		GlobalLimiter:  middleware.NewMemoryLimiter(100, time.Minute),
		AuthLimiter:    middleware.NewMemoryLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow),
		RefreshLimiter: middleware.NewMemoryLimiter(5, time.Minute),
	}
	for _, fn := range customize {
		fn(&deps)
	}

	engine, err := NewEngine(deps)
	require.NoError(t, err)
	return engine
}

func request(h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewEngine_Flow(t *testing.T) {
	h := newTestEngine(t, testConfig())

	w := request(h, http.MethodPost, "/api/auth/register",
		`{"email":"flow@example.com","password":"Password123","confirmPassword":"Password123"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	var registered struct {
		Data handler.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))

	me := request(h, http.MethodGet, "/api/auth/me", "", registered.Data.AccessToken)
	assert.Equal(t, http.StatusOK, me.Code)

	username := request(h, http.MethodGet, "/api/user/check-username/"+registered.Data.User.Username, "", "")
	assert.Equal(t, http.StatusOK, username.Code)
	assert.Contains(t, username.Body.String(), `"available":false`)

	logout := request(h, http.MethodPost, "/api/auth/logout",
		`{"refreshToken":"`+registered.Data.RefreshToken+`"}`, registered.Data.AccessToken)
	assert.Equal(t, http.StatusOK, logout.Code)

	after := request(h, http.MethodGet, "/api/auth/me", "", registered.Data.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestNewEngine_Middleware(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		w := request(h, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("unknown route gets an envelope", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		w := request(h, http.MethodGet, "/api/nope", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("auth endpoints are rate limited", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		for i := 0; i < 3; i++ {
			w := request(h, http.MethodPost, "/api/auth/login", `{}`, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
		w := request(h, http.MethodPost, "/api/auth/login", `{}`, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		// the auth budget does not cover public lookups
		assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/api/user/check-username/someone", "", "").Code)
	})

	t.Run("refresh has its own budget", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		for i := 0; i < 4; i++ {
			request(h, http.MethodPost, "/api/auth/login", `{}`, "")
		}
		for i := 0; i < 5; i++ {
			w := request(h, http.MethodPost, "/api/auth/refresh-token", `{}`, "")
			assert.NotEqual(t, http.StatusTooManyRequests, w.Code, "refresh %d", i+1)
		}
		w := request(h, http.MethodPost, "/api/auth/refresh-token", `{}`, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("body limit", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		body := `{"email":"` + strings.Repeat("a", 2048) + `"}`
		w := request(h, http.MethodPost, "/api/auth/login", body, "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("hsts in production", func(t *testing.T) {
		cfg := testConfig()
		cfg.App.Env = "production"
		h := newTestEngine(t, cfg)
		w := request(h, http.MethodGet, "/health", "", "")
		assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	})

	t.Run("swagger only when enabled", func(t *testing.T) {
		h := newTestEngine(t, testConfig())
		assert.Equal(t, http.StatusNotFound, request(h, http.MethodGet, "/swagger/doc.json", "", "").Code)

		cfg := testConfig()
		cfg.Swagger.Enabled = true
		h = newTestEngine(t, cfg)
		w := request(h, http.MethodGet, "/swagger/doc.json", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/auth/refresh-token")
	})

	t.Run("http metrics", func(t *testing.T) {
		reader := metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))
		h := newTestEngine(t, testConfig(), func(d *Deps) {
			d.Meter = provider.Meter("test")
		})
		request(h, http.MethodGet, "/health", "", "")

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(t.Context(), &rm))
		names := map[string]bool{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				names[m.Name] = true
			}
		}
		assert.True(t, names["http.server.requests"])
		assert.True(t, names["http.server.duration"])
	})
}
