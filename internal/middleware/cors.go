package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/skcgolf/skc-api/internal/config"
)

const exposedHeaders = "Authorization, Link, X-Total-Count, X-skcApp-alert, X-skcApp-error, X-skcApp-params"

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: false,
	})
}
