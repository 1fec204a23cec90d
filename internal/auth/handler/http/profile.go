package http

import (
	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/auth/service"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

func profileView(u *model.User) fiber.Map {
	view := fiber.Map{
		"profile_first_name":  u.FirstName,
		"profile_last_name":   u.LastName,
		"profile_picture_url": u.ProfilePictureURL,
		"about_me":            u.AboutMe,
		"baby_gender":         u.BabyGender,
		"baby_age":            u.BabyAge,
		"email":               u.Email,
		"phone":               u.Phone,
		"pending_email":       "",
		"pending_phone":       "",
	}
	if p, ok := u.Pending(); ok {
		view["pending_"+string(p.Kind)] = p.Candidate
	}
	return view
}

func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.authService.Profile(c.UserContext(), auth.CurrentPrincipal(c).UserID())
	if err != nil {
		return err
	}
	return response.OK(c, "Profile retrieved successfully", profileView(user))
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var input service.ProfileUpdate
	if err := c.BodyParser(&input); err != nil {
		return customErrors.Validation("Invalid data")
	}

	result, err := h.authService.UpdateProfile(c.UserContext(), auth.CurrentPrincipal(c).UserID(), input)
	if err != nil {
		return err
	}

	if result.Staged != nil {
		message := "OTP has been send to your email"
		if result.Staged.Kind == model.ContactPhone {
			message = "OTP has been send to your phone"
		}
		return response.OK(c, message, fiber.Map{"username": result.User.Username})
	}
	return response.OK(c, "Profile updated", profileView(result.User))
}
