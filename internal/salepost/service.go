package salepost

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/internal/category"
	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/metrics"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/region"
	"github.com/abisalde/marketplace-service/internal/salepost/search"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/tree"
	"github.com/abisalde/marketplace-service/pkg/verification"
	"go.uber.org/zap"
)

const (
	HomeFeedSize    = 16
	SimilarFeedSize = 5
	MaxTitleLength  = 70
	postIDAttempts  = 5
)

var (
	ErrSalePostNotFound = customErrors.NotFound("Salepost not found")
	ErrNoEditAccess     = customErrors.Forbidden("You have no access to edit")
	ErrNoDeleteAccess   = customErrors.Forbidden("You have no access to delete")
	ErrInvalidMinUsage  = customErrors.Validation("Min usage range id is not valid.")
	ErrInvalidMaxUsage  = customErrors.Validation("Max usage range id is not valid.")
	ErrUsageOrder       = customErrors.Validation("Min usage range must be less than or equal to max usage range.")
	ErrInvalidCategory  = customErrors.Validation("Category id is not valid.")
	ErrInvalidRegion    = customErrors.Validation("Region id is not valid.")
	ErrPriceRequired    = customErrors.Validation("Product price is required and must be a number.")
	ErrNegativePrice    = customErrors.Validation("Product price cannot be negative.")
	ErrInvalidPrice     = customErrors.Validation("Product price is not valid.")
	ErrTitleRequired    = customErrors.Validation("Title is required.")
	ErrTitleTooLong     = customErrors.Validation("Title must be at most %d characters.", MaxTitleLength)
	ErrUsageBothInvalid = customErrors.Validation("min_usage and max_usage must be integers.")
	ErrUsageMinInvalid  = customErrors.Validation("min_usage must be an integer.")
	ErrUsageMaxInvalid  = customErrors.Validation("max_usage must be an integer.")
)

type Service struct {
	repo       Repository
	categories *category.Service
	regions    *region.Service
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for posted_at and date filters.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, categories *category.Service, regions *region.Service, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		categories: categories,
		regions:    regions,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func internal(err error) error {
	return customErrors.InternalServerError(err, "Internal server error")
}

// views renders listings with their attributes in one extra query.
func (s *Service) views(ctx context.Context, listings []*Listing, distances map[int64]*float64) ([]View, error) {
	ids := make([]int64, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	attrs, err := s.repo.Attributes(ctx, ids...)
	if err != nil {
		return nil, internal(err)
	}

	views := make([]View, len(listings))
	for i, l := range listings {
		views[i] = newView(l, attrs[l.ID], distances[l.ID])
	}
	return views, nil
}

type ListResult struct {
	Count    int
	Page     int
	Limit    int
	Next     *int
	Previous *int
	Results  []View
}

// List runs the listing search: validate, expand the category and region
// trees, filter in the store, then rank and paginate in memory.
func (s *Service) List(ctx context.Context, params search.Params) (*ListResult, error) {
	req, err := search.Parse(params, s.now())
	if err != nil {
		return nil, err
	}

	err = req.Resolve(func(id int64) (*search.Point, bool, error) {
		r, err := s.regions.Get(ctx, id)
		if errors.Is(err, region.ErrRegionNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if r.Latitude == nil || r.Longitude == nil {
			return nil, true, nil
		}
		return &search.Point{Lat: *r.Latitude, Lng: *r.Longitude}, true, nil
	})
	if err != nil {
		return nil, err
	}

	if len(req.CategoryIDs) > 0 {
		children, err := s.categories.Children(ctx)
		if err != nil {
			return nil, internal(err)
		}
		req.CategoryIDs = tree.IDs(children.Descendants(req.CategoryIDs...))
	}
	if len(req.RegionIDs) > 0 {
		children, err := s.regions.Children(ctx)
		if err != nil {
			return nil, internal(err)
		}
		req.RegionIDs = tree.IDs(children.Descendants(req.RegionIDs...))
	}

	listings, err := s.repo.Search(ctx, req.Filter)
	if err != nil {
		return nil, internal(err)
	}

	byID := make(map[int64]*Listing, len(listings))
	candidates := make([]search.Candidate, len(listings))
	for i, l := range listings {
		byID[l.ID] = l
		candidates[i] = search.Candidate{Post: &l.SalePost, Coords: l.Coords()}
	}

	page, err := search.Paginate(search.Rank(candidates, req), req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	pageListings := make([]*Listing, len(page.Results))
	distances := make(map[int64]*float64, len(page.Results))
	for i, hit := range page.Results {
		pageListings[i] = byID[hit.Post.ID]
		distances[hit.Post.ID] = hit.DistanceKm
	}

	views, err := s.views(ctx, pageListings, distances)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Count:    page.Count,
		Page:     page.Page,
		Limit:    page.Limit,
		Next:     page.Next,
		Previous: page.Previous,
		Results:  views,
	}, nil
}

// Retrieve returns a listing and counts the view. Every call counts.
func (s *Service) Retrieve(ctx context.Context, postID int) (*View, error) {
	found, err := s.repo.IncrementViews(ctx, postID)
	if err != nil {
		return nil, internal(err)
	}
	if !found {
		return nil, ErrSalePostNotFound
	}
	metrics.RecordSalePostView()

	listing, err := s.get(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []*Listing{listing}, nil)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) get(ctx context.Context, postID int) (*Listing, error) {
	listing, err := s.repo.GetByPostID(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrSalePostNotFound
	}
	if err != nil {
		return nil, internal(err)
	}
	return listing, nil
}

// ParseHomeFilter validates the usage bounds of the home feed.
func ParseHomeFilter(gender, minUsage, maxUsage string) (HomeFilter, error) {
	f := HomeFilter{Gender: strings.TrimSpace(gender)}

	minV, minErr := strconv.Atoi(strings.TrimSpace(minUsage))
	maxV, maxErr := strconv.Atoi(strings.TrimSpace(maxUsage))
	hasMin, hasMax := minUsage != "", maxUsage != ""

	switch {
	case hasMin && hasMax && (minErr != nil || maxErr != nil):
		return f, ErrUsageBothInvalid
	case hasMin && minErr != nil:
		return f, ErrUsageMinInvalid
	case hasMax && maxErr != nil:
		return f, ErrUsageMaxInvalid
	}
	if hasMin {
		f.MinUsage = &minV
	}
	if hasMax {
		f.MaxUsage = &maxV
	}
	return f, nil
}

// Home returns the newest published listings matching f.
func (s *Service) Home(ctx context.Context, f HomeFilter) ([]View, error) {
	listings, err := s.repo.Latest(ctx, f, HomeFeedSize)
	if err != nil {
		return nil, internal(err)
	}
	return s.views(ctx, listings, nil)
}

// Similar fills up to SimilarFeedSize listings from the same category, then
// sibling categories, then cousin categories, newest first in each group.
func (s *Service) Similar(ctx context.Context, postID int) ([]View, error) {
	listing, err := s.get(ctx, postID)
	if err != nil {
		return nil, err
	}

	all, err := s.categories.All(ctx)
	if err != nil {
		return nil, internal(err)
	}

	picked := []*Listing{}
	seen := map[int64]bool{}
	for _, group := range similarGroups(all, listing.CategoryID) {
		if len(picked) >= SimilarFeedSize {
			break
		}
		candidates, err := s.repo.InCategories(ctx, group, listing.ID, SimilarFeedSize)
		if err != nil {
			return nil, internal(err)
		}
		for _, c := range candidates {
			if seen[c.ID] || len(picked) >= SimilarFeedSize {
				continue
			}
			seen[c.ID] = true
			picked = append(picked, c)
		}
	}
	return s.views(ctx, picked, nil)
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// similarGroups returns the category id groups searched for similar listings:
// the category itself, its siblings, and the children of its parent's siblings.
func similarGroups(all []*model.Category, categoryID int64) [][]int64 {
	var current *model.Category
	byID := make(map[int64]*model.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
		if c.ID == categoryID {
			current = c
		}
	}
	groups := [][]int64{{categoryID}}
	if current == nil {
		return groups
	}

	var siblings []int64
	for _, c := range all {
		if sameParent(c.ParentID, current.ParentID) {
			siblings = append(siblings, c.ID)
		}
	}
	groups = append(groups, siblings)

	if current.ParentID == nil {
		return groups
	}
	parent, ok := byID[*current.ParentID]
	if !ok {
		return groups
	}

	uncles := map[int64]bool{}
	for _, c := range all {
		if sameParent(c.ParentID, parent.ParentID) {
			uncles[c.ID] = true
		}
	}
	var cousins []int64
	for _, c := range all {
		if c.ParentID != nil && uncles[*c.ParentID] {
			cousins = append(cousins, c.ID)
		}
	}
	return append(groups, cousins)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func (s *Service) usageRange(ctx context.Context, raw json.RawMessage, invalid error) (*model.UsageRange, error) {
	repo := s.categories.Repository()

	var (
		u   *model.UsageRange
		err error
	)
	if absent(raw) {
		u, err = repo.UsageRangeByUniqueID(ctx, category.DefaultUsageRangeUniqueID)
	} else {
		id, ok := parseID(raw)
		if !ok {
			return nil, invalid
		}
		u, err = repo.UsageRange(ctx, id)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, internal(err)
	}
	return u, nil
}

func (s *Service) coordinates(latRaw, lngRaw json.RawMessage) (*float64, *float64, error) {
	if absent(latRaw) && absent(lngRaw) {
		return nil, nil, nil
	}
	lat, okLat := parseFloat(latRaw)
	lng, okLng := parseFloat(lngRaw)
	if !okLat || !okLng {
		return nil, nil, search.ErrInvalidCoordinates
	}
	lat, lng = math.Round(lat*1e6)/1e6, math.Round(lng*1e6)/1e6
	if !(search.Point{Lat: lat, Lng: lng}).Valid() {
		return nil, nil, search.ErrOutOfRange
	}
	return &lat, &lng, nil
}

// Create validates p and stores the listing with its attributes in one
// transaction. It returns the public post id.
func (s *Service) Create(ctx context.Context, sellerID int64, p CreatePayload) (int, error) {
	minUsage, err := s.usageRange(ctx, p.MinUsage, ErrInvalidMinUsage)
	if err != nil {
		return 0, err
	}
	maxUsage, err := s.usageRange(ctx, p.MaxUsage, ErrInvalidMaxUsage)
	if err != nil {
		return 0, err
	}
	if minUsage.UniqueID > maxUsage.UniqueID {
		return 0, ErrUsageOrder
	}

	categoryID, ok := parseID(p.Category)
	if !ok {
		return 0, ErrInvalidCategory
	}
	if _, err := s.categories.Repository().Get(ctx, categoryID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrInvalidCategory
		}
		return 0, internal(err)
	}

	regionID, ok := parseID(p.Region)
	if !ok {
		return 0, ErrInvalidRegion
	}
	if _, err := s.regions.Get(ctx, regionID); err != nil {
		if errors.Is(err, region.ErrRegionNotFound) {
			return 0, ErrInvalidRegion
		}
		return 0, err
	}

	price, ok := parsePrice(p.Price)
	if !ok {
		return 0, ErrPriceRequired
	}
	if price.IsNegative() {
		return 0, ErrNegativePrice
	}

	lat, lng, err := s.coordinates(p.Latitude, p.Longitude)
	if err != nil {
		return 0, err
	}

	title, err := validateTitle(p.Title)
	if err != nil {
		return 0, err
	}

	defs, err := s.categories.Repository().AttributesOf(ctx, categoryID)
	if err != nil {
		return 0, internal(err)
	}
	attrs, err := validateAttributes(defs, p.Attributes, nil)
	if err != nil {
		return 0, err
	}

	now := s.now()
	post := &model.SalePost{
		Status:      model.SalePostPublished,
		SellerID:    sellerID,
		CategoryID:  categoryID,
		RegionID:    regionID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		Price:       price.Round(2),
		Latitude:    lat,
		Longitude:   lng,
		MinUsageID:  &minUsage.ID,
		MaxUsageID:  &maxUsage.ID,
		PostedAt:    now,
		UpdatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		if post.PostID, err = verification.GeneratePostID(); err != nil {
			return 0, internal(err)
		}
		err = s.repo.Create(ctx, post, attrs)
		if err == nil {
			return post.PostID, nil
		}
		if !database.IsUniqueViolation(err) || attempt == postIDAttempts {
			return 0, internal(err)
		}
		logger.FromContext(ctx).Debug("post id collision, retrying", zap.Int("post_id", post.PostID))
	}
}

// Update edits a listing owned by the caller.
func (s *Service) Update(ctx context.Context, caller *auth.Principal, postID int, p UpdatePayload) error {
	listing, err := s.get(ctx, postID)
	if err != nil {
		return err
	}
	if caller.UserID() != listing.SellerID {
		return ErrNoEditAccess
	}

	post := listing.SalePost
	if !absent(p.Price) {
		price, ok := parsePrice(p.Price)
		if !ok || price.IsNegative() {
			return ErrInvalidPrice
		}
		post.Price = price.Round(2)
	}
	if p.Title != nil {
		if post.Title, err = validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		post.Description = strings.TrimSpace(*p.Description)
	}

	defs, err := s.categories.Repository().AttributesOf(ctx, post.CategoryID)
	if err != nil {
		return internal(err)
	}
	stored, err := s.repo.Attributes(ctx, post.ID)
	if err != nil {
		return internal(err)
	}
	existing := map[int64]bool{}
	for _, v := range stored[post.ID] {
		existing[v.AttributeID] = true
	}
	attrs, err := validateAttributes(defs, p.Attributes, existing)
	if err != nil {
		return err
	}

	post.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, &post, attrs); err != nil {
		return internal(err)
	}
	return nil
}

// Delete removes a listing. Only its seller or staff may delete it.
func (s *Service) Delete(ctx context.Context, caller *auth.Principal, postID int) error {
	listing, err := s.get(ctx, postID)
	if err != nil {
		return err
	}
	if caller.UserID() != listing.SellerID && !caller.IsStaff() {
		return ErrNoDeleteAccess
	}
	if err := s.repo.Delete(ctx, listing.ID); err != nil {
		return internal(err)
	}
	return nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// validateAttributes checks values against the category's attribute
// definitions and returns the rows to store. existing marks attributes
// already stored, which satisfy required checks when omitted.
func validateAttributes(defs []*model.Attribute, values map[string]any, existing map[int64]bool) ([]*model.SalePostAttribute, error) {
	var rows []*model.SalePostAttribute
	for _, def := range defs {
		v, ok := values[def.UniqueName]
		if !ok || isEmptyValue(v) {
			if def.IsRequired && !existing[def.ID] {
				return nil, customErrors.Validation("%s is required.", def.UniqueName)
			}
			continue
		}

		row := &model.SalePostAttribute{AttributeID: def.ID}
		switch def.DataType {
		case model.AttributeTypeNumber:
			n, ok := v.(float64)
			if !ok {
				return nil, customErrors.Validation("%s must be a number.", def.UniqueName)
			}
			row.ValueNumber = &n
		case model.AttributeTypeChoice, model.AttributeTypeSwitch:
			choiceID, ok := matchChoice(def.Choices, v)
			if !ok {
				return nil, customErrors.Validation("%s is not a valid choice.", def.UniqueName)
			}
			row.ChoiceID = &choiceID
		default:
			text, ok := v.(string)
			if !ok {
				return nil, customErrors.Validation("%s must be a string.", def.UniqueName)
			}
			text = strings.TrimSpace(text)
			row.ValueText = &text
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// matchChoice resolves a choice given by id, by value, or as a boolean for switches.
func matchChoice(choices []model.AttributeChoice, v any) (int64, bool) {
	var byValue string
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		for _, c := range choices {
			if c.ID == int64(t) {
				return c.ID, true
			}
		}
		return 0, false
	case bool:
		byValue = strconv.FormatBool(t)
	case string:
		byValue = strings.TrimSpace(t)
	default:
		return 0, false
	}
	for _, c := range choices {
		if strings.EqualFold(c.Value, byValue) {
			return c.ID, true
		}
	}
	return 0, false
}
