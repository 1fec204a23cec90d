package category

import (
	"context"
	"errors"
	"time"

	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	allCacheKey = "category:all"
	cacheTTL    = 10 * time.Minute
)

var (
	ErrCategoryNotFound  = customErrors.NotFound("Category not found")
	ErrAttributeNotFound = customErrors.NotFound("Attribute not found")
	ErrNoChoices         = customErrors.Validation("Attribute has no choices")
)

// Node is a category with its nested subcategories. Subcategories is null for leaves.
type Node struct {
	ID            int64   `json:"id"`
	Parent        *int64  `json:"parent"`
	Name          string  `json:"name"`
	IconURL       *string `json:"icon_url"`
	Subcategories []*Node `json:"subcategories"`
}

type Detail struct {
	Node
	UsageRange []model.UsageRange `json:"usage_range"`
	Attributes []*model.Attribute `json:"attributes"`
	Brands     []model.Brand      `json:"brands"`
}

type Service struct {
	repo    Repository
	cache   database.CacheService
	sfGroup singleflight.Group
}

func NewService(repo Repository, cache database.CacheService) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Repository() Repository { return s.repo }

// All returns every category from one query, served from the cache when warm.
// Concurrent misses share a single database read.
func (s *Service) All(ctx context.Context) ([]*model.Category, error) {
	var cached []*model.Category
	if err := s.cache.Get(ctx, allCacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, database.ErrCacheMiss) {
		logger.FromContext(ctx).Warn("category cache read failed", zap.Error(err))
	}

	result, err, _ := s.sfGroup.Do(allCacheKey, func() (any, error) {
		categories, err := s.repo.All(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, allCacheKey, categories, cacheTTL); err != nil {
			logger.FromContext(ctx).Warn("category cache write failed", zap.Error(err))
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*model.Category), nil
}

// Invalidate drops the cached category list.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, allCacheKey)
}

// Children indexes the category tree by parent.
func (s *Service) Children(ctx context.Context) (tree.Children, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return tree.FromParents(all,
		func(c *model.Category) int64 { return c.ID },
		func(c *model.Category) *int64 { return c.ParentID },
	), nil
}

func toNode(c *model.Category) *Node {
	n := &Node{ID: c.ID, Parent: c.ParentID, Name: c.Name}
	if c.Icon != "" {
		icon := c.Icon
		n.IconURL = &icon
	}
	return n
}

// buildForest nests the flat list under its roots. Nodes whose parent is
// missing from the list are dropped, as are cycles unreachable from a root.
func buildForest(all []*model.Category) []*Node {
	nodes := make(map[int64]*Node, len(all))
	for _, c := range all {
		nodes[c.ID] = toNode(c)
	}

	roots := []*Node{}
	for _, c := range all {
		n := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok && *c.ParentID != c.ID {
			parent.Subcategories = append(parent.Subcategories, n)
		}
	}
	return roots
}

func (s *Service) List(ctx context.Context) ([]*Node, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return buildForest(all), nil
}

func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	detail := &Detail{Node: *toNode(c)}

	all, err := s.All(ctx)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	for _, child := range all {
		if child.ParentID != nil && *child.ParentID == c.ID && child.ID != c.ID {
			detail.Subcategories = append(detail.Subcategories, toNode(child))
		}
	}

	if detail.UsageRange, err = s.usageRanges(ctx, c); err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if detail.Attributes, err = s.repo.AttributesOf(ctx, c.ID); err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if detail.Brands, err = s.repo.BrandsOf(ctx, c.ID); err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return detail, nil
}

// usageRanges lists the ranges between the category's bounds, or nil when it has none.
func (s *Service) usageRanges(ctx context.Context, c *model.Category) ([]model.UsageRange, error) {
	if c.MinUsageID == nil && c.MaxUsageID == nil {
		return nil, nil
	}

	var minUnique, maxUnique *int
	if c.MinUsageID != nil {
		u, err := s.repo.UsageRange(ctx, *c.MinUsageID)
		if err != nil {
			return nil, err
		}
		minUnique = &u.UniqueID
	}
	if c.MaxUsageID != nil {
		u, err := s.repo.UsageRange(ctx, *c.MaxUsageID)
		if err != nil {
			return nil, err
		}
		maxUnique = &u.UniqueID
	}
	return s.repo.UsageRangesBetween(ctx, minUnique, maxUnique)
}

func (s *Service) Attributes(ctx context.Context, categoryID int64) ([]*model.Attribute, error) {
	if _, err := s.repo.Get(ctx, categoryID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	attrs, err := s.repo.AttributesOf(ctx, categoryID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return attrs, nil
}

func (s *Service) Choices(ctx context.Context, attributeID int64) ([]model.AttributeChoice, error) {
	attr, err := s.repo.Attribute(ctx, attributeID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAttributeNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if !attr.DataType.HasChoices() {
		return nil, ErrNoChoices
	}

	choices, err := s.repo.Choices(ctx, attributeID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return choices, nil
}

// Create inserts a category and drops the cached tree.
func (s *Service) Create(ctx context.Context, c *model.Category) error {
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return err
	}
	return s.Invalidate(ctx)
}
