package region

import (
	"encoding/json"
	"strings"

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
	router.Get("/", h.List)
	router.Get("/:id<int>", h.Retrieve)
	router.Post("/", middleware.RequireAuth(), middleware.RequirePermission("region.add_region"), h.Create)
	router.Put("/:id<int>", middleware.RequireAuth(), middleware.RequirePermission("region.change_region"), h.Update)
	router.Patch("/:id<int>", middleware.Disabled("This endpoint is not available. Please use the update endpoint"))
	router.Delete("/:id<int>", middleware.RequireAuth(), middleware.RequirePermission("region.delete_region"), h.Delete)
}

func (h *Handler) List(c *fiber.Ctx) error {
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		matches, err := h.service.Search(c.UserContext(), keyword)
		if err != nil {
			return err
		}
		return response.OK(c, "Regions retrieved successfully.", matches)
	}

	roots, err := h.service.Roots(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Regions retrieved successfully.", roots)
}

func (h *Handler) Retrieve(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrRegionNotFound
	}

	node, err := h.service.Subtree(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return response.OK(c, "Region retrieved successfully.", node)
}

type regionInput struct {
	Name   string          `json:"name"`
	Parent json.RawMessage `json:"parent"`
}

// parentRef accepts the parent id as a JSON number or string.
func (in regionInput) parentRef() string {
	raw := strings.TrimSpace(string(in.Parent))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(in.Parent, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return raw
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var input regionInput
	if err := c.BodyParser(&input); err != nil {
		return ErrNameRequired
	}

	message, err := h.service.Create(c.UserContext(), input.Name, input.parentRef())
	if err != nil {
		return err
	}
	return response.Created(c, message, nil)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrRegionNotFound
	}

	var input regionInput
	if err := c.BodyParser(&input); err != nil {
		return ErrNothingToUpdate
	}

	if err := h.service.Update(c.UserContext(), int64(id), input.Name, input.parentRef()); err != nil {
		return err
	}
	return response.OK(c, "Region updated successfully", nil)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return ErrRegionNotFound
	}

	if err := h.service.Delete(c.UserContext(), int64(id)); err != nil {
		return err
	}
	return response.OK(c, "Region deleted successfully", nil)
}
