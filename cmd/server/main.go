package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/skcgolf/skc-api/internal/apps"
	"github.com/skcgolf/skc-api/internal/apps/courses"
	"github.com/skcgolf/skc-api/internal/cache"
	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/database"
	"github.com/skcgolf/skc-api/internal/handlers"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/mail"
	"github.com/skcgolf/skc-api/internal/middleware"
	"github.com/skcgolf/skc-api/internal/repository"
	"github.com/skcgolf/skc-api/internal/routes"
	"github.com/skcgolf/skc-api/internal/security"
	"github.com/skcgolf/skc-api/internal/services"
	"github.com/skcgolf/skc-api/internal/workers"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	tokens, err := security.NewTokenService(cfg)
	if err != nil {
		slog.Error("invalid JWT configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.Install(logging.NewMultiHandler(logging.NewStdoutHandler(), pgLogHandler))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// User lookup caches
	var caches *cache.Users
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		caches = cache.NewRedisUsers(client, cfg.CacheTTL)
	default:
		caches = cache.NewMemoryUsers(cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	slog.Info("user caches ready", "backend", cfg.CacheBackend)

	mailer, closeMailer, err := mail.New(cfg)
	if err != nil {
		slog.Error("mail setup failed", "error", err)
		os.Exit(1)
	}

	// Services
	userRepo := repository.NewUserRepository(database.DB)
	hasher := security.NewBCryptHasher(0)
	userService := services.NewUserService(userRepo, hasher, mailer, caches)
	auditService := services.NewAuditService(repository.NewAuditEventRepository(database.DB))
	authService := services.NewAuthService(security.NewGate(userRepo, caches), hasher, tokens, auditService)

	if err := database.Seed(context.Background(), database.DB, hasher, cfg.AdminInitialPassword, security.RandomPassword()); err != nil {
		slog.Error("seeding accounts failed", "error", err)
		os.Exit(1)
	}

	// Register plugins
	plugins := []apps.Plugin{
		courses.New(),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Stale account purge
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	purgeWorker := workers.NewPurgeWorker(userService, cfg.PurgeHour)
	purgeWorker.Start(workerCtx)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, tokens, routes.Handlers{
		Account: handlers.NewAccountHandler(userService, cfg),
		UserJWT: handlers.NewUserJWTHandler(authService),
		User:    handlers.NewUserHandler(userService),
		Audit:   handlers.NewAuditHandler(auditService),
		Logs:    handlers.NewLogsHandler(),
		Health:  handlers.NewHealthHandler(database.Ping),
	}, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stopWorkers()
	purgeWorker.Wait()
	closeMailer()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
