package router

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	_ "github.com/odyssey/backend/docs"
	"github.com/odyssey/backend/internal/infrastructure/auth"
	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/logger"
	"github.com/odyssey/backend/internal/interfaces/http/dto"
	"github.com/odyssey/backend/internal/interfaces/http/handler"
	"github.com/odyssey/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Rate limit scopes. Each gets its own budget per client IP.
const (
	ScopeGlobal  = "global"
	ScopeAuth    = "auth"
	ScopeRefresh = "refresh"
)

// Deps is everything the HTTP surface needs
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist

	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	System *handler.SystemHandler

	// Limiters are only consulted when the matching config flag is on
	GlobalLimiter  middleware.Limiter
	AuthLimiter    middleware.Limiter
	RefreshLimiter middleware.Limiter

	// Optional observability hooks; nil disables them
	Meter          metric.Meter
	TracerProvider trace.TracerProvider
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        cfg.Telemetry.Enabled,
		TracerProvider: deps.TracerProvider,
	})...)
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	if deps.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(deps.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(httpMetrics)
	}
	if cfg.Profiler.Enabled {
		engine.Use(middleware.Profiling())
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()
	engine.Use(middleware.Secure(security))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORS(corsConfig))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.HTTP.RateLimitEnabled && deps.GlobalLimiter != nil {
		engine.Use(middleware.RateLimit(deps.GlobalLimiter, ScopeGlobal, log))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDContextKey)))
	})

	engine.GET("/health", deps.System.Health)
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		log.Info("Swagger UI enabled", zap.String("path", "/swagger/index.html"))
	}

	r := NewRouter(engine)

	authRoutes := NewDomainGroup("auth", "/auth")
	var credentials, refresh []gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		if deps.AuthLimiter != nil {
			credentials = append(credentials, middleware.RateLimit(deps.AuthLimiter, ScopeAuth, log))
		}
		if deps.RefreshLimiter != nil {
			refresh = append(refresh, middleware.RateLimit(deps.RefreshLimiter, ScopeRefresh, log))
		}
	}
	authRoutes.POST("/register", slices.Concat(credentials, []gin.HandlerFunc{deps.Auth.Register})...)
	authRoutes.POST("/login", slices.Concat(credentials, []gin.HandlerFunc{deps.Auth.Login})...)
	authRoutes.POST("/refresh-token", slices.Concat(refresh, []gin.HandlerFunc{deps.Auth.RefreshToken})...)
	authRoutes.POST("/logout", middleware.OptionalJWTMiddleware(deps.JWT, deps.Blacklist, log), deps.Auth.Logout)
	authRoutes.GET("/me", middleware.JWTAuthMiddleware(deps.JWT, deps.Blacklist, log), deps.Auth.GetCurrentUser)

	userRoutes := NewDomainGroup("user", "/user")
	userRoutes.GET("/check-username/:username", deps.User.CheckUsername)

	r.Register(authRoutes).Register(userRoutes)
	r.Setup()

	return engine, nil
}
