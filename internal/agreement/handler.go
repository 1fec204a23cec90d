package agreement

import (
	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service  *Service
	clientIP func(*fiber.Ctx) string
}

func NewHandler(service *Service, clientIP func(*fiber.Ctx) string) *Handler {
	return &Handler{service: service, clientIP: clientIP}
}

// RegisterRoutes mounts the agreement endpoints on the auth router.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/agreements", h.List)
	router.Get("/agreements/pending", middleware.RequireAuth(), h.Pending)
	router.Post("/agreements/accept", middleware.RequireAuth(), h.Accept)
}

func (h *Handler) List(c *fiber.Ctx) error {
	agreements, err := h.service.List(c.UserContext(), c.Query("type"))
	if err != nil {
		return err
	}
	return response.OK(c, "Agreements retrieved successfully", agreements)
}

func (h *Handler) Pending(c *fiber.Ctx) error {
	agreements, err := h.service.Pending(c.UserContext(), auth.CurrentPrincipal(c).UserID())
	if err != nil {
		return err
	}
	return response.OK(c, "Pending agreements retrieved successfully", agreements)
}

type acceptInput struct {
	AgreementIDs []int64 `json:"agreement_ids"`
}

func (h *Handler) Accept(c *fiber.Ctx) error {
	var input acceptInput
	if err := c.BodyParser(&input); err != nil {
		return ErrInvalidIDs
	}

	accepted, err := h.service.Accept(c.UserContext(), auth.CurrentPrincipal(c).UserID(), input.AgreementIDs, h.clientIP(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Agreements accepted successfully", fiber.Map{"accepted": accepted})
}
