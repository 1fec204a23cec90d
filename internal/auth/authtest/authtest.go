// Package authtest attaches a fixed principal to requests in handler tests.
package authtest

import (
	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/gofiber/fiber/v2"
)

// UserHeader selects which registered principal a test request runs as.
const UserHeader = "X-Test-User"

// Principals maps a UserHeader value to the caller it authenticates.
type Principals map[string]*auth.Principal

// Middleware sets the principal named by UserHeader. Requests without the
// header stay anonymous.
func (p Principals) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal, ok := p[c.Get(UserHeader)]; ok {
			auth.SetPrincipal(c, principal)
		}
		return c.Next()
	}
}

// Principal builds a caller for user holding perms.
func Principal(user *model.User, perms ...string) *auth.Principal {
	return &auth.Principal{User: user, Permissions: perms}
}
