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

	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/database"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/identity"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/logging"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/migration"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/routes"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/services"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/session"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/upgrade"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.AppEnv),
		dbLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Services
	st := store.NewGormStore(database.DB)
	guestProvider := identity.NewJWTProvider(cfg.JWTSecret, cfg.GuestSessionExpiry)
	google := identity.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleJWKSURL)
	engine := migration.NewEngine(st)
	authService := services.NewAuthService(database.DB, st, cfg, google, upgrade.NewOrchestrator(engine))
	workspaceService := services.NewWorkspaceService(st)

	if !google.Configured() {
		slog.Warn("GOOGLE_CLIENT_ID not set, Google sign in disabled")
	}

	// Handlers
	guestSessions := handlers.NewGuestSessions(st, guestProvider, session.CookieOptions{
		Secure: cfg.CookieSecure,
		MaxAge: cfg.GuestSessionExpiry,
	})
	authHandler := handlers.NewAuthHandler(authService, guestSessions)
	guestHandler := handlers.NewGuestHandler(guestSessions, authService, cfg.GuestSyncInterval)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	migrationHandler := handlers.NewMigrationHandler(engine)
	healthHandler := handlers.NewHealthHandler(database.Ping)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
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

	routes.Setup(app, cfg, st, authHandler, guestHandler, workspaceHandler, migrationHandler, healthHandler)

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

	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
