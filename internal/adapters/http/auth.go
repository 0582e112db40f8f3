package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

const localsUser = "user"

// RequirePermission authenticates the bearer token and checks perm.
func RequirePermission(deps *Dependencies, perm domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Auth == nil {
			return errUnauthorized(c)
		}
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		user, err := deps.Auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return errFromDomain(c, err, "")
		}
		c.SetUserContext(withUser(c.UserContext(), user))
		if err := deps.Auth.Authorize(user, perm); err != nil {
			LoggerFromCtx(c.UserContext()).Warn("permission denied", "perm", string(perm))
			return errFromDomain(c, err, "")
		}
		c.Locals(localsUser, user)
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// currentUser returns the authenticated user, if any.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localsUser).(*domain.User)
	return u
}
