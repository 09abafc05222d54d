package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/session"
)

const identityKey = "auth_identity"

// Paths used by the session guard.
const (
	LoginPath     = "/login"
	DashboardPath = "/painel"
)

// RequireSession lets signed-in visitors through and sends everyone else to
// the login page, remembering the page they asked for.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.From(c)
		identity, ok := sess.Identity()
		if !ok {
			// Only GETs are replayed after login; a POST target would 404/405.
			if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
				sess.RememberRedirect(utils.CopyString(c.OriginalURL()))
			}
			return c.Redirect(LoginPath)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFromContext retrieves the identity stored by RequireSession.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
