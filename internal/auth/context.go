package auth

import (
	"context"

	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/gofiber/fiber/v2"
)

type contextKey string

var (
	PrincipalKey = contextKey("currentPrincipal")
	JWTTokenKey  = contextKey("JWTTokenKey")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User        *model.User
	Groups      []string
	Permissions []string
	Token       string
}

func (p *Principal) UserID() int64 {
	if p == nil || p.User == nil {
		return 0
	}
	return p.User.ID
}

func (p *Principal) IsStaff() bool {
	return p != nil && p.User != nil && p.User.IsStaff
}

// HasPerm reports whether the principal holds codename. Staff hold every permission.
func (p *Principal) HasPerm(codename string) bool {
	if p == nil || p.User == nil {
		return false
	}
	if p.User.IsStaff {
		return true
	}
	for _, perm := range p.Permissions {
		if perm == codename {
			return true
		}
	}
	return false
}

func SetPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(PrincipalKey, p)
	c.SetUserContext(WithPrincipal(c.UserContext(), p))
}

// CurrentPrincipal returns the caller attached by the authentication middleware, or nil.
func CurrentPrincipal(c *fiber.Ctx) *Principal {
	if p, ok := c.Locals(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}
