package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/skcgolf/skc-api/internal/apps"
	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/handlers"
	"github.com/skcgolf/skc-api/internal/middleware"
	"github.com/skcgolf/skc-api/internal/security"
	"gorm.io/gorm"
)

// Handlers groups every handler mounted by Setup.
type Handlers struct {
	Account *handlers.AccountHandler
	UserJWT *handlers.UserJWTHandler
	User    *handlers.UserHandler
	Audit   *handlers.AuditHandler
	Logs    *handlers.LogsHandler
	Health  *handlers.HealthHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	tokens *security.TokenService,
	h Handlers,
	plugins []apps.Plugin,
) {
	protected := middleware.JWTProtected(tokens)
	admin := middleware.AdminRequired()

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Credential endpoints: 10 req/min per IP (stricter)
	credentials := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	api.Get("/health", h.Health.Check)

	// Account lifecycle, public
	api.Post("/register", credentials, h.Account.Register)
	api.Get("/activate", h.Account.Activate)
	api.Get("/authenticate", middleware.OptionalAuth(tokens), h.Account.IsAuthenticated)
	api.Post("/authenticate", credentials, h.UserJWT.Authorize)
	api.Post("/account/reset-password/init", credentials, h.Account.RequestPasswordReset)
	api.Post("/account/reset-password/finish", credentials, h.Account.FinishPasswordReset)

	// Account, authenticated
	api.Get("/account", protected, h.Account.GetAccount)
	api.Post("/account", protected, h.Account.SaveAccount)
	api.Post("/account/change-password", protected, h.Account.ChangePassword)

	// User management, admin only
	users := api.Group("/users", protected, admin)
	users.Get("/", h.User.List)
	users.Post("/", h.User.Create)
	users.Put("/", h.User.Update)
	users.Get("/authorities", h.User.Authorities)
	users.Get("/:login", h.User.Get)
	users.Delete("/:login", h.User.Delete)

	// Management, admin only
	management := app.Group("/management", protected, admin)
	management.Get("/audits", h.Audit.List)
	management.Get("/audits/:id", h.Audit.Get)
	management.Get("/logs", h.Logs.List)
	management.Put("/logs", h.Logs.Change)

	// Plugin routes, each mounted on its own authenticated group
	for _, p := range plugins {
		p.RegisterRoutes(api.Group("/"+p.ID(), protected), db, cfg)
	}
}
