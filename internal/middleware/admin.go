package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/security"
)

// AdminRequired must run after JWTProtected.
func AdminRequired() fiber.Handler {
	return HasAuthority(models.RoleAdmin)
}

// HasAuthority allows the request only when the principal holds the role.
func HasAuthority(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := security.GetPrincipal(c)
		if principal == nil {
			return unauthorized()
		}
		if !principal.HasAuthority(role) {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden")
		}
		return c.Next()
	}
}
