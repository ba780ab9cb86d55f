package middleware

import (
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skcgolf/skc-api/internal/security"
)

func unauthorized() error {
	return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
}

// JWTProtected rejects requests without a valid HS512 bearer token and
// stores the caller's principal on the request.
func JWTProtected(tokens *security.TokenService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS512, Key: tokens.Key()},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok || token == nil {
				return unauthorized()
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized()
			}
			principal, err := security.PrincipalFromClaims(claims)
			if err != nil {
				return unauthorized()
			}
			security.SetPrincipal(c, principal)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized()
		},
	})
}

// OptionalAuth sets the principal when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens *security.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
			if principal, err := tokens.Authenticate(raw); err == nil {
				security.SetPrincipal(c, principal)
			}
		}
		return c.Next()
	}
}
