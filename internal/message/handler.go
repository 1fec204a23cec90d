package message

import (
	"github.com/abisalde/marketplace-service/internal/auth"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Use(middleware.RequireAuth())
	router.Get("/", h.List)
	router.Post("/", h.Send)
	router.Get("/:unique_id", h.Retrieve)
	router.Put("/:unique_id", middleware.Disabled("Method not allowed"))
	router.Patch("/:unique_id", middleware.Disabled("Method not allowed"))
	router.Delete("/:unique_id", h.Leave)
}

func (h *Handler) List(c *fiber.Ctx) error {
	views, err := h.service.List(c.UserContext(), auth.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Conversations retrieved successfully", views)
}

func (h *Handler) Retrieve(c *fiber.Ctx) error {
	detail, err := h.service.Retrieve(c.UserContext(), auth.CurrentPrincipal(c), c.Params("unique_id"))
	if err != nil {
		return err
	}
	return response.OK(c, "Conversation details retrieved successfully", detail)
}

func (h *Handler) Send(c *fiber.Ctx) error {
	var payload SendPayload
	if err := c.BodyParser(&payload); err != nil {
		return customErrors.Validation("Invalid data")
	}

	result, err := h.service.Send(c.UserContext(), auth.CurrentPrincipal(c), payload)
	if err != nil {
		return err
	}
	return response.Created(c, "Message sent successfully", result)
}

func (h *Handler) Leave(c *fiber.Ctx) error {
	if err := h.service.Leave(c.UserContext(), auth.CurrentPrincipal(c), c.Params("unique_id")); err != nil {
		return err
	}
	return response.OK(c, "You have left the conversation successfully", nil)
}
