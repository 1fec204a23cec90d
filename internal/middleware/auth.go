package middleware

import (
	"context"
	"strings"

	"github.com/abisalde/marketplace-service/internal/auth"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Authenticator resolves an access token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error)
}

// Authenticate attaches the principal for a valid, non-blacklisted access
// token. Requests without one continue anonymously.
func Authenticate(a Authenticator, accessCookie string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := stripToken(c, accessCookie)
		if token == "" {
			return c.Next()
		}

		c.Locals(auth.JWTTokenKey, token)

		principal, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			logger.FromContext(c.UserContext()).Debug("access token rejected", zap.Error(err))
			return c.Next()
		}

		auth.SetPrincipal(c, principal)
		return c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.CurrentPrincipal(c) == nil {
			return customErrors.AuthenticationRequired
		}
		return c.Next()
	}
}

// RequirePermission rejects callers lacking codename. Staff pass every check.
func RequirePermission(codename string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		if p == nil {
			return customErrors.AuthenticationRequired
		}
		if !p.HasPerm(codename) {
			return customErrors.PermissionDenied
		}
		return c.Next()
	}
}

// stripToken prefers a Bearer header and falls back to the access cookie.
func stripToken(c *fiber.Ctx, accessCookie string) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			return token
		}
	}
	return c.Cookies(accessCookie)
}
