package cookies

import (
	"strings"
	"time"

	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/gofiber/fiber/v2"
)

// Jar writes and clears the auth cookies according to the auth config.
type Jar struct {
	AccessName  string
	RefreshName string
	Secure      bool
	SameSite    string
	Lifetimes   Lifetimes
}

func NewJar(cfg *configs.Config) *Jar {
	return &Jar{
		AccessName:  cfg.Auth.AccessCookieName,
		RefreshName: cfg.Auth.RefreshCookieName,
		Secure:      cfg.Auth.SecureCookies || cfg.IsProduction(),
		SameSite:    sameSite(cfg.Auth.CookieSameSite),
		Lifetimes: Lifetimes{
			Access:  cfg.Auth.AccessTokenTTL,
			Refresh: cfg.Auth.RefreshTokenTTL,
		},
	}
}

func sameSite(v string) string {
	switch strings.ToLower(v) {
	case "strict":
		return fiber.CookieSameSiteStrictMode
	case "none":
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteLaxMode
	}
}

func (j *Jar) set(c *fiber.Ctx, name, value string, ttl time.Duration) {
	expires := time.Now().Add(ttl)
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(ttl.Seconds()),
		Secure:   j.Secure,
		HTTPOnly: true,
		SameSite: j.SameSite,
	})
}

// CreateBrowserSession sets both the access and refresh cookies.
func (j *Jar) CreateBrowserSession(c *fiber.Ctx, tokens *TokenPair) {
	j.set(c, j.AccessName, tokens.AccessToken, j.Lifetimes.Access)
	j.set(c, j.RefreshName, tokens.RefreshToken, j.Lifetimes.Refresh)
}

func (j *Jar) SetAccess(c *fiber.Ctx, accessToken string) {
	j.set(c, j.AccessName, accessToken, j.Lifetimes.Access)
}

func (j *Jar) Clear(c *fiber.Ctx) {
	for _, name := range []string{j.AccessName, j.RefreshName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   j.Secure,
			HTTPOnly: true,
			SameSite: j.SameSite,
		})
	}
}

func (j *Jar) Access(c *fiber.Ctx) string  { return c.Cookies(j.AccessName) }
func (j *Jar) Refresh(c *fiber.Ctx) string { return c.Cookies(j.RefreshName) }
