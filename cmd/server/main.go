package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/odyssey/backend/internal/application/identity"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/infrastructure/auth"
	"github.com/odyssey/backend/internal/infrastructure/cache"
	"github.com/odyssey/backend/internal/infrastructure/config"
	"github.com/odyssey/backend/internal/infrastructure/logger"
	"github.com/odyssey/backend/internal/infrastructure/persistence"
	"github.com/odyssey/backend/internal/infrastructure/persistence/memory"
	"github.com/odyssey/backend/internal/infrastructure/scheduler"
	"github.com/odyssey/backend/internal/infrastructure/telemetry"
	"github.com/odyssey/backend/internal/interfaces/http/handler"
	"github.com/odyssey/backend/internal/interfaces/http/middleware"
	"github.com/odyssey/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Odyssey Auth API
//	@version		1.0
//	@description	Account registration, login and token lifecycle.

//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTEL logs need a logger to report their own setup, so the final logger
	// is built once the provider exists.
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	log, err := logger.New(logCfg, loggerProvider.ZapCore(logger.ParseLevel(cfg.Telemetry.LogsLevel)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Odyssey auth backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Profiler, cfg.Telemetry.ServiceName, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiler.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	var healthChecks []handler.HealthCheck

	repos, closeStores, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStores()
	if repos.ping != nil {
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "database", Ping: repos.ping})
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	switch {
	case errors.Is(err, cache.ErrRedisDisabled):
		log.Info("Redis not in use, blacklist and rate limits are per instance")
	case err != nil:
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	default:
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	shared := newSharedState(cfg, redisClient)
	blacklist := shared.blacklist

	if !cfg.Scheduler.Disabled {
		stopMaintenance := startMaintenance(ctx, cfg, repos.tokens, blacklist, log)
		defer stopMaintenance()
	}

	var authOpts []identityapp.AuthServiceOption
	meter := meterProvider.Meter("odyssey/auth")
	if meterProvider.IsEnabled() {
		authMetrics, err := telemetry.NewAuthMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create auth metrics", zap.Error(err))
		}
		authOpts = append(authOpts, identityapp.WithAuthMetrics(authMetrics))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	hasher := auth.NewPasswordHasher(cfg.Auth)
	authService := identityapp.NewAuthService(repos.users, repos.tokens, hasher, jwtService, blacklist, log, authOpts...)
	userService := identityapp.NewUserService(repos.users, log)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := router.Deps{
		Config:        cfg,
		Logger:        log,
		JWT:           jwtService,
		Blacklist:     blacklist,
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(userService),
		System:        handler.NewSystemHandler(version, healthChecks...),
		GlobalLimiter:  shared.global,
		AuthLimiter:    shared.auth,
		RefreshLimiter: shared.refresh,
	}
	if meterProvider.IsEnabled() {
		deps.Meter = meterProvider.Meter("odyssey/http")
	}
	engine, err := router.NewEngine(deps)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

type stores struct {
	users  identity.UserRepository
	tokens identity.RefreshTokenRepository
	ping   func(ctx context.Context) error
}

// openStores picks the repositories for the configured driver
func openStores(cfg *config.Config, log *zap.Logger) (stores, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage, all accounts are lost on restart")
		return stores{
			users:  memory.NewUserRepository(),
			tokens: memory.NewRefreshTokenRepository(),
		}, func() {}, nil
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(cfg.Database, gormLog)
	if err != nil {
		return stores{}, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		closeDB()
		return stores{}, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			closeDB()
			return stores{}, nil, err
		}
		log.Info("Database schema migrated")
	}

	return stores{
		users:  persistence.NewGormUserRepository(db.DB),
		tokens: persistence.NewGormRefreshTokenRepository(db.DB),
		ping:   db.Ping,
	}, closeDB, nil
}

// startMaintenance runs the periodic purge jobs and returns their shutdown
func startMaintenance(ctx context.Context, cfg *config.Config, tokens identity.RefreshTokenRepository, blacklist auth.TokenBlacklist, log *zap.Logger) func() {
	sched := scheduler.NewScheduler(cfg.Scheduler, log.Named("scheduler"))
	sched.Register(scheduler.TaskPurgeRefreshTokens, scheduler.PurgeRefreshTokens(tokens, time.Now, log))
	if purger, ok := blacklist.(scheduler.BlacklistPurger); ok {
		sched.Register(scheduler.TaskPurgeBlacklist, scheduler.PurgeBlacklist(purger, cfg.JWT.RefreshTokenExpiration, log))
	}
	trigger := scheduler.NewIntervalTrigger(cfg.Scheduler.Interval, sched, log)

	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start maintenance trigger", zap.Error(err))
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping maintenance trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
}

type sharedState struct {
	blacklist auth.TokenBlacklist
	global    middleware.Limiter
	auth      middleware.Limiter
	refresh   middleware.Limiter
}

// newSharedState returns the blacklist and rate limiters, backed by redis
// when a client is available so every instance sees the same state
func newSharedState(cfg *config.Config, client *redis.Client) sharedState {
	if client == nil {
		return sharedState{
			blacklist: auth.NewInMemoryTokenBlacklist(),
			global:    middleware.NewMemoryLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow),
			auth:      middleware.NewMemoryLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow),
			refresh:   middleware.NewMemoryLimiter(cfg.HTTP.RefreshRateLimitRequests, cfg.HTTP.RefreshRateLimitWindow),
		}
	}
	return sharedState{
		blacklist: auth.NewRedisTokenBlacklist(client),
		global:    middleware.NewRedisLimiter(client, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, ""),
		auth:      middleware.NewRedisLimiter(client, cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow, ""),
		refresh:   middleware.NewRedisLimiter(client, cfg.HTTP.RefreshRateLimitRequests, cfg.HTTP.RefreshRateLimitWindow, ""),
	}
}
