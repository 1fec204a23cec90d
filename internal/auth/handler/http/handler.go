package http

import (
	"github.com/abisalde/marketplace-service/internal/auth/cookies"
	"github.com/abisalde/marketplace-service/internal/auth/service"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// Throttle builds a per-IP rate limiting handler for the named scope.
type Throttle func(scope string) fiber.Handler

type AuthHandler struct {
	authService *service.AuthService
	jar         *cookies.Jar
}

func NewAuthHandler(authService *service.AuthService, jar *cookies.Jar) *AuthHandler {
	return &AuthHandler{authService: authService, jar: jar}
}

func (h *AuthHandler) RegisterRoutes(router fiber.Router, throttle Throttle) {
	router.Post("/login", throttle("auth_login"), h.Login)
	router.Post("/otp-verify", throttle("auth_otp_verify"), h.VerifyOTP)
	router.Post("/google", throttle("auth_google"), h.GoogleLogin)
	router.Post("/refresh", h.Refresh)
	router.Post("/logout", throttle("auth_logout"), h.Logout)

	router.Get("/me", middleware.RequireAuth(), h.Me)
	router.Get("/profile", middleware.RequireAuth(), h.GetProfile)
	router.Put("/profile", middleware.RequireAuth(), h.UpdateProfile)
}
