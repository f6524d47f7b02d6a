package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	st store.Store,
	authHandler *handlers.AuthHandler,
	guestHandler *handlers.GuestHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	migrationHandler *handlers.MigrationHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Guest lifecycle, keyed by the device's guest cookies
	guest := api.Group("/guest")
	guest.Post("/init", guestHandler.Init)
	guest.Get("/status", guestHandler.Status)
	guest.Post("/sync", guestHandler.Sync)
	api.Delete("/guest", guestHandler.Clear)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/google", authHandler.GoogleSignIn)

	// JWT is applied per route so the public routes above stay public
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Get("/workspace", middleware.JWTProtected(cfg), workspaceHandler.Get)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(st, cfg))
	admin.Post("/migrations", migrationHandler.Run)
}
