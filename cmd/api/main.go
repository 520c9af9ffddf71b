// MsHoa Learning | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mshoa-learning/backend/internal/admin"
	"github.com/mshoa-learning/backend/internal/auth"
	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/email"
	"github.com/mshoa-learning/backend/internal/entitlement"
	"github.com/mshoa-learning/backend/internal/health"
	"github.com/mshoa-learning/backend/internal/middleware"
	"github.com/mshoa-learning/backend/internal/payment"
	"github.com/mshoa-learning/backend/internal/server"
	"github.com/mshoa-learning/backend/internal/storage"
	"github.com/mshoa-learning/backend/internal/user"
	"github.com/mshoa-learning/backend/internal/video"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	core.ExposeErrorDetails(cfg.App.Environment != "production")

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	blobStore, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("object storage ready", "bucket", cfg.Storage.Bucket)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer, err := email.NewMailer(cfg.Email, cfg.App.FrontendURL, logger)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		mailer,
		redis.Client,
		cfg.Admin,
		logger,
	)
	authHandler := auth.NewHandler(authSvc)

	entitlementRepo := entitlement.NewRepository(db.DB)
	entitlementSvc := entitlement.NewService(entitlementRepo, userSvc)
	entitlementHandler := entitlement.NewHandler(entitlementSvc)

	courseRepo := course.NewRepository(db.DB)

	videoRepo := video.NewRepository(db.DB)
	videoSvc := video.NewService(
		videoRepo,
		courseRepo,
		entitlementSvc,
		blobStore,
		cfg.Payment,
		logger,
	)
	videoHandler := video.NewHandler(videoSvc, cfg.Storage.MaxUploadMB)

	courseSvc := course.NewService(courseRepo, entitlementSvc, videoSvc)
	courseHandler := course.NewHandler(courseSvc)

	paymentRepo := payment.NewRepository(db.DB)
	paymentSvc := payment.NewService(
		db.DB,
		paymentRepo,
		courseSvc,
		entitlementSvc,
		userSvc,
		mailer,
		cfg.Payment,
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc, cfg.Payment.WebhookSecret)

	healthHandler := health.NewHandler(db, redis)

	statsHandler := admin.NewStatsHandler(admin.StatsConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})
	adminHandler := admin.NewHandler(
		courseSvc,
		videoHandler,
		paymentSvc,
		userSvc,
		statsHandler,
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager, userSvc, authSvc)
	optionalAuth := middleware.OptionalAuth(jwtManager, userSvc, authSvc)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		courseHandler.RegisterRoutes(r, optionalAuth, authenticator)
		entitlementHandler.RegisterRoutes(r, authenticator)
		paymentHandler.RegisterRoutes(r, authenticator)
		videoHandler.RegisterRoutes(r, optionalAuth)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
