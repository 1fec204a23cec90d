package category

import (
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
	router.Get("/list", h.List)
	router.Get("/attributes/:id<int>/choices", h.Choices)
	router.Get("/:id<int>", h.Detail)
	router.Get("/:id<int>/attributes", h.Attributes)
}

func (h *Handler) List(c *fiber.Ctx) error {
	nodes, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Categories retrieved successfully", nodes)
}

func (h *Handler) Detail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrCategoryNotFound
	}

	detail, err := h.service.Detail(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return response.OK(c, "Category retrieved successfully", detail)
}

func (h *Handler) Attributes(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrCategoryNotFound
	}

	attrs, err := h.service.Attributes(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return response.OK(c, "Attributes retrieved successfully", attrs)
}

func (h *Handler) Choices(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrAttributeNotFound
	}

	choices, err := h.service.Choices(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return response.OK(c, "Choices retrieved successfully", choices)
}
