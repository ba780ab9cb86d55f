package security

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/models"
)

const principalLocal = "principal"

// Principal is the authenticated identity of a request.
type Principal struct {
	Login       string
	Authorities []string
}

func (p *Principal) HasAuthority(name string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == name {
			return true
		}
	}
	return false
}

// SetPrincipal stores the principal on the request and in its user context,
// which also makes rows written during the request carry the login as auditor.
func SetPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalLocal, p)
	c.SetUserContext(WithPrincipal(c.UserContext(), p))
}

// GetPrincipal returns the request principal or nil.
func GetPrincipal(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalLocal).(*Principal)
	return p
}

// CurrentLogin returns the login of the request principal, if any.
func CurrentLogin(c *fiber.Ctx) (string, bool) {
	p := GetPrincipal(c)
	if p == nil || p.Login == "" {
		return "", false
	}
	return p.Login, true
}

type principalKey struct{}

// WithPrincipal attaches p to ctx, along with its login as auditor.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(models.WithAuditor(ctx, p.Login), principalKey{}, p)
}

// PrincipalFrom returns the principal attached by WithPrincipal, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
