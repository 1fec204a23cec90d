// Package search validates listing queries and ranks candidate listings.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	MaxDistanceKm   = 50.0
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortKey string

const (
	SortPrice       SortKey = "price"
	SortPublishedAt SortKey = "published_at"
	SortDistance    SortKey = "distance"
)

var (
	ErrReferenceRequired  = customErrors.Validation("user_latitude & user_longitude or user_region_id is required for distance filtering or sorting.")
	ErrAmbiguousReference = customErrors.Validation("Provide either user_region_id or user_latitude/user_longitude, not both.")
	ErrCoordinatePair     = customErrors.Validation("user_latitude and user_longitude must be used together.")
	ErrInvalidCoordinates = customErrors.Validation("Invalid latitude or longitude.")
	ErrOutOfRange         = customErrors.Validation("Latitude or longitude out of range.")
	ErrRegionNotFound     = customErrors.NotFound("Region not found.")
	ErrRegionNoCoords     = customErrors.Validation("Region has no coordinates.")
	ErrInvalidMaxDistance = customErrors.Validation("Invalid max_distance value")
	ErrInvalidSort        = customErrors.Validation("Invalid sort_by value. Must be 'price', 'published_at', or 'distance'.")
	ErrInvalidPage        = customErrors.NotFound("Invalid page.")
)

// Params holds the raw query string values of a listing search.
type Params struct {
	UserLatitude      string
	UserLongitude     string
	UserRegionID      string
	MaxDistance       string
	SortBy            string
	Order             string
	CategoryIDs       string
	RegionIDs         string
	PriceMin          string
	PriceMax          string
	PublishedLastDays string
	Keyword           string
	Limit             string
	Page              string
}

// Filter is the part of a search applied by the store.
type Filter struct {
	CategoryIDs    []int64
	RegionIDs      []int64
	PriceMin       *decimal.Decimal
	PriceMax       *decimal.Decimal
	PublishedSince *time.Time
	Keyword        string
}

// Request is a validated search. When distance is needed, exactly one of
// Reference or ReferenceRegion is set.
type Request struct {
	Filter

	NeedsDistance   bool
	Reference       *Point
	ReferenceRegion *int64
	MaxDistance     *float64

	SortBy SortKey
	Desc   bool
	Page   int
	Limit  int
}

// RegionLookup resolves a region to its coordinates. ok is false when the
// region does not exist, and coords is nil when it has no coordinates.
type RegionLookup func(id int64) (coords *Point, ok bool, err error)

// Parse validates p in the same order the API reports errors. Region
// references stay unresolved until Resolve.
func Parse(p Params, now time.Time) (*Request, error) {
	req := &Request{SortBy: SortKey(p.SortBy)}
	if req.SortBy == "" {
		req.SortBy = SortPublishedAt
	}
	req.Desc = p.Order == "desc"

	req.NeedsDistance = p.MaxDistance != "" || req.SortBy == SortDistance
	if req.NeedsDistance {
		if err := parseReference(req, p); err != nil {
			return nil, err
		}
	}

	if err := parseFilter(&req.Filter, p, now); err != nil {
		return nil, err
	}

	if p.MaxDistance != "" {
		d, err := strconv.ParseFloat(strings.TrimSpace(p.MaxDistance), 64)
		if err != nil || d < 0 {
			return nil, ErrInvalidMaxDistance
		}
		d = min(d, MaxDistanceKm)
		req.MaxDistance = &d
	}

	switch req.SortBy {
	case SortPrice, SortPublishedAt, SortDistance:
	default:
		return nil, ErrInvalidSort
	}

	req.Limit = parseLimit(p.Limit)
	page, err := parsePage(p.Page)
	if err != nil {
		return nil, err
	}
	req.Page = page
	return req, nil
}

func parseReference(req *Request, p Params) error {
	lat, lng, region := strings.TrimSpace(p.UserLatitude), strings.TrimSpace(p.UserLongitude), strings.TrimSpace(p.UserRegionID)
	hasPair := lat != "" && lng != ""

	switch {
	case !hasPair && region == "":
		return ErrReferenceRequired
	case hasPair && region != "":
		return ErrAmbiguousReference
	case (lat != "") != (lng != ""):
		return ErrCoordinatePair
	}

	if region != "" {
		id, err := strconv.ParseInt(region, 10, 64)
		if err != nil {
			return ErrRegionNotFound
		}
		req.ReferenceRegion = &id
		return nil
	}

	latV, errLat := strconv.ParseFloat(lat, 64)
	lngV, errLng := strconv.ParseFloat(lng, 64)
	if errLat != nil || errLng != nil {
		return ErrInvalidCoordinates
	}
	point := Point{Lat: roundTo(latV, 6), Lng: roundTo(lngV, 6)}
	if !point.Valid() {
		return ErrOutOfRange
	}
	req.Reference = &point
	return nil
}

// Resolve replaces a region reference with its coordinates.
func (r *Request) Resolve(lookup RegionLookup) error {
	if r.ReferenceRegion == nil {
		return nil
	}
	coords, ok, err := lookup(*r.ReferenceRegion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRegionNotFound
	}
	if coords == nil {
		return ErrRegionNoCoords
	}
	if !coords.Valid() {
		return ErrOutOfRange
	}
	r.Reference = coords
	r.ReferenceRegion = nil
	return nil
}

func invalidFilter(format string, args ...any) error {
	return customErrors.Validation("Invalid filtering value: %s", fmt.Sprintf(format, args...))
}

func parseFilter(f *Filter, p Params, now time.Time) error {
	f.CategoryIDs = parseIDList(p.CategoryIDs)
	f.RegionIDs = parseIDList(p.RegionIDs)

	for _, bound := range []struct {
		name string
		raw  string
		dest **decimal.Decimal
	}{
		{"price_min", p.PriceMin, &f.PriceMin},
		{"price_max", p.PriceMax, &f.PriceMax},
	} {
		if bound.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(bound.raw))
		if err != nil {
			return invalidFilter("%s must be a number, got %q", bound.name, bound.raw)
		}
		*bound.dest = &d
	}

	if p.PublishedLastDays != "" {
		days, err := strconv.Atoi(strings.TrimSpace(p.PublishedLastDays))
		if err != nil || days < 0 {
			return invalidFilter("published_last_days must be a non-negative integer, got %q", p.PublishedLastDays)
		}
		since := now.AddDate(0, 0, -days)
		f.PublishedSince = &since
	}

	f.Keyword = strings.TrimSpace(p.Keyword)
	return nil
}

// parseIDList reads a comma separated id list, skipping entries that are
// not plain digits. A non-empty list with no valid ids yields an empty,
// non-nil slice, which matches nothing.
func parseIDList(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// parseLimit falls back to the default for missing or invalid values and
// caps at MaxPageSize.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultPageSize
	}
	return min(n, MaxPageSize)
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}
