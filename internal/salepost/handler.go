package salepost

import (
	"net/url"
	"strconv"

	"github.com/abisalde/marketplace-service/internal/auth"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/abisalde/marketplace-service/internal/salepost/search"
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
	router.Get("/home", h.Home)
	router.Get("/:post_id<int>/similar", h.Similar)
	router.Get("/:post_id<int>", h.Retrieve)
	router.Post("/", middleware.RequireAuth(), middleware.RequirePermission("salepost.add_salepost"), h.Create)
	router.Put("/:post_id<int>", middleware.RequireAuth(), h.Update)
	router.Patch("/:post_id<int>", middleware.Disabled("Partial update endpoint is not available. Please use the update endpoint"))
	router.Delete("/:post_id<int>", middleware.RequireAuth(), h.Delete)
}

func postID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("post_id")
	if err != nil {
		return 0, ErrSalePostNotFound
	}
	return id, nil
}

// pageURL rewrites the current URL to point at page.
func pageURL(c *fiber.Ctx, page *int) *string {
	if page == nil {
		return nil
	}
	u, err := url.Parse(c.OriginalURL())
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(*page))
	link := c.BaseURL() + u.Path + "?" + q.Encode()
	return &link
}

func (h *Handler) List(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext(), search.Params{
		UserLatitude:      c.Query("user_latitude"),
		UserLongitude:     c.Query("user_longitude"),
		UserRegionID:      c.Query("user_region_id"),
		MaxDistance:       c.Query("max_distance"),
		SortBy:            c.Query("sort_by"),
		Order:             c.Query("order"),
		CategoryIDs:       c.Query("category_ids"),
		RegionIDs:         c.Query("region_ids"),
		PriceMin:          c.Query("price_min"),
		PriceMax:          c.Query("price_max"),
		PublishedLastDays: c.Query("published_last_days"),
		Keyword:           c.Query("keyword"),
		Limit:             c.Query("limit"),
		Page:              c.Query("page"),
	})
	if err != nil {
		return err
	}

	return response.OK(c, "Salepost list retrieved successfully", fiber.Map{
		"count":    result.Count,
		"page":     result.Page,
		"limit":    result.Limit,
		"next":     pageURL(c, result.Next),
		"previous": pageURL(c, result.Previous),
		"results":  result.Results,
	})
}

func (h *Handler) Home(c *fiber.Ctx) error {
	filter, err := ParseHomeFilter(c.Query("gender"), c.Query("min_usage"), c.Query("max_usage"))
	if err != nil {
		return err
	}

	views, err := h.service.Home(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return response.OK(c, "Home saleposts retrieved successfully", views)
}

func (h *Handler) Similar(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	views, err := h.service.Similar(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Similar saleposts retrieved successfully", views)
}

func (h *Handler) Retrieve(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Retrieve(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Salepost retrieved successfully", view)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var payload CreatePayload
	if err := c.BodyParser(&payload); err != nil {
		return customErrors.Validation("Invalid data")
	}

	id, err := h.service.Create(c.UserContext(), auth.CurrentPrincipal(c).UserID(), payload)
	if err != nil {
		return err
	}
	return response.Created(c, "Salepost has been created.", fiber.Map{"postId": id})
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	var payload UpdatePayload
	if err := c.BodyParser(&payload); err != nil {
		return customErrors.Validation("Invalid data")
	}

	if err := h.service.Update(c.UserContext(), auth.CurrentPrincipal(c), id, payload); err != nil {
		return err
	}
	return response.OK(c, "Salepost has been updated", nil)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), auth.CurrentPrincipal(c), id); err != nil {
		return err
	}
	return response.OK(c, "Salepost deleted successfully", nil)
}
