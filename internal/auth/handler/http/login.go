package http

import (
	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/auth/service"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.Validation("Invalid data")
	}

	result, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	message := "OTP has been send to your email"
	if result.Channel == model.ContactPhone {
		message = "OTP has been send to your phone"
	}
	return response.OK(c, message, fiber.Map{"username": result.User.Username})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input service.VerifyInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.Validation("otp must be an string")
	}

	session, err := h.authService.VerifyOTP(c.UserContext(), input)
	if err != nil {
		return err
	}

	h.jar.CreateBrowserSession(c, session.Tokens)

	p := session.Principal
	return response.OK(c, "OTP verified successfully", fiber.Map{
		"id":          p.User.ID,
		"username":    p.User.Username,
		"groups":      p.Groups,
		"permissions": p.Permissions,
	})
}

type googleLoginInput struct {
	Token   string `json:"token"`
	IDToken string `json:"id_token"`
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var input googleLoginInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.Validation("Google token verification failed")
	}
	token := input.Token
	if token == "" {
		token = input.IDToken
	}

	session, err := h.authService.GoogleLogin(c.UserContext(), token)
	if err != nil {
		return err
	}

	h.jar.CreateBrowserSession(c, session.Tokens)
	return response.OK(c, "The login with google was successful", fiber.Map{
		"id":       session.Principal.User.ID,
		"username": session.Principal.User.Username,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	access, err := h.authService.Refresh(c.UserContext(), h.jar.Refresh(c))
	if err != nil {
		return err
	}

	h.jar.SetAccess(c, access)
	return response.OK(c, "Token refreshed successfully.", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := auth.CurrentPrincipal(c)
	return response.OK(c, "User info retrieved successfully", fiber.Map{
		"id":       p.User.ID,
		"username": p.User.Username,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), h.jar.Access(c), h.jar.Refresh(c)); err != nil {
		return err
	}

	h.jar.Clear(c)
	return response.OK(c, "Logged out successfully", nil)
}
