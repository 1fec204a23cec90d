package search

import (
	"errors"
	"testing"
	"time"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestHaversine(t *testing.T) {
	istanbul := Point{Lat: 41.0082, Lng: 28.9784}
	ankara := Point{Lat: 39.9334, Lng: 32.8597}

	assert.Zero(t, Haversine(istanbul, istanbul))
	assert.Equal(t, Haversine(istanbul, ankara), Haversine(ankara, istanbul))
	assert.InDelta(t, 350.0, Haversine(istanbul, ankara), 5)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "Less than 1 km", FormatDistance(0.4))
	assert.Equal(t, "1.00 km", FormatDistance(1))
	assert.Equal(t, "12.35 km", FormatDistance(12.346))
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := customErrors.As(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	return appErr.Message
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"distance sort without reference", Params{SortBy: "distance"}, "user_latitude & user_longitude or user_region_id is required for distance filtering or sorting."},
		{"max distance without reference", Params{MaxDistance: "10"}, "user_latitude & user_longitude or user_region_id is required for distance filtering or sorting."},
		{"both references", Params{SortBy: "distance", UserLatitude: "1", UserLongitude: "2", UserRegionID: "3"}, "Provide either user_region_id or user_latitude/user_longitude, not both."},
		{"latitude alone with region", Params{SortBy: "distance", UserLatitude: "1", UserRegionID: "3"}, "user_latitude and user_longitude must be used together."},
		{"non numeric coordinate", Params{SortBy: "distance", UserLatitude: "north", UserLongitude: "2"}, "Invalid latitude or longitude."},
		{"out of range", Params{SortBy: "distance", UserLatitude: "91", UserLongitude: "2"}, "Latitude or longitude out of range."},
		{"bad price", Params{PriceMin: "cheap"}, `Invalid filtering value: price_min must be a number, got "cheap"`},
		{"bad days", Params{PublishedLastDays: "week"}, `Invalid filtering value: published_last_days must be a non-negative integer, got "week"`},
		{"bad distance", Params{MaxDistance: "far", UserLatitude: "1", UserLongitude: "2"}, "Invalid max_distance value"},
		{"bad sort", Params{SortBy: "views"}, "Invalid sort_by value. Must be 'price', 'published_at', or 'distance'."},
		{"bad page", Params{Page: "zero"}, "Invalid page."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.params, now)
			require.Error(t, err)
			assert.Equal(t, tt.want, messageOf(t, err))
		})
	}
}

func TestParseDefaultsAndClamp(t *testing.T) {
	req, err := Parse(Params{
		MaxDistance:       "120",
		UserLatitude:      "41.00823456",
		UserLongitude:     "28.9784",
		CategoryIDs:       "1, 2,abc,,3",
		PriceMin:          "10",
		PriceMax:          "99.50",
		PublishedLastDays: "7",
		Limit:             "500",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, SortPublishedAt, req.SortBy)
	assert.False(t, req.Desc)
	require.NotNil(t, req.MaxDistance)
	assert.Equal(t, MaxDistanceKm, *req.MaxDistance)
	assert.Equal(t, &Point{Lat: 41.008235, Lng: 28.9784}, req.Reference)
	assert.Equal(t, []int64{1, 2, 3}, req.CategoryIDs)
	assert.True(t, decimal.NewFromFloat(99.5).Equal(*req.PriceMax))
	assert.Equal(t, now.AddDate(0, 0, -7), *req.PublishedSince)
	assert.Equal(t, MaxPageSize, req.Limit)
	assert.Equal(t, 1, req.Page)

	req, err = Parse(Params{Limit: "-4"}, now)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, req.Limit)
}

func TestResolveRegionReference(t *testing.T) {
	req, err := Parse(Params{SortBy: "distance", UserRegionID: "7"}, now)
	require.NoError(t, err)
	require.NotNil(t, req.ReferenceRegion)

	err = req.Resolve(func(int64) (*Point, bool, error) { return nil, false, nil })
	assert.Equal(t, "Region not found.", messageOf(t, err))

	err = req.Resolve(func(int64) (*Point, bool, error) { return nil, true, nil })
	assert.Equal(t, "Region has no coordinates.", messageOf(t, err))

	boom := errors.New("boom")
	assert.ErrorIs(t, req.Resolve(func(int64) (*Point, bool, error) { return nil, false, boom }), boom)

	require.NoError(t, req.Resolve(func(id int64) (*Point, bool, error) {
		assert.Equal(t, int64(7), id)
		return &Point{Lat: 1, Lng: 2}, true, nil
	}))
	assert.Equal(t, &Point{Lat: 1, Lng: 2}, req.Reference)
}

func post(id int64, price string, posted time.Time) *model.SalePost {
	return &model.SalePost{ID: id, Price: decimal.RequireFromString(price), PostedAt: posted}
}

func ids(hits []Hit) []int64 {
	out := make([]int64, len(hits))
	for i, h := range hits {
		out[i] = h.Post.ID
	}
	return out
}

func TestRankSortsStably(t *testing.T) {
	candidates := []Candidate{
		{Post: post(1, "50", now.Add(-3*time.Hour))},
		{Post: post(2, "10", now.Add(-1*time.Hour))},
		{Post: post(3, "50", now.Add(-2*time.Hour))},
		{Post: post(4, "10", now.Add(-4*time.Hour))},
	}

	assert.Equal(t, []int64{2, 4, 1, 3}, ids(Rank(candidates, &Request{SortBy: SortPrice})))
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(Rank(candidates, &Request{SortBy: SortPrice, Desc: true})))
	assert.Equal(t, []int64{4, 1, 3, 2}, ids(Rank(candidates, &Request{SortBy: SortPublishedAt})))
	assert.Equal(t, []int64{2, 3, 1, 4}, ids(Rank(candidates, &Request{SortBy: SortPublishedAt, Desc: true})))
}

func TestRankByDistance(t *testing.T) {
	origin := Point{Lat: 41.0, Lng: 29.0}
	candidates := []Candidate{
		{Post: post(1, "1", now), Coords: &Point{Lat: 41.2, Lng: 29.0}},
		{Post: post(2, "1", now), Coords: &Point{Lat: 41.001, Lng: 29.0}},
		{Post: post(3, "1", now)},
		{Post: post(4, "1", now), Coords: &Point{Lat: 39.9, Lng: 32.8}},
	}

	hits := Rank(candidates, &Request{SortBy: SortDistance, Reference: &origin})
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(hits))
	assert.Less(t, *hits[0].DistanceKm, 1.0)
	assert.Nil(t, hits[3].DistanceKm)

	limit := 50.0
	hits = Rank(candidates, &Request{SortBy: SortDistance, Desc: true, Reference: &origin, MaxDistance: &limit})
	assert.Equal(t, []int64{1, 2}, ids(hits))

	hits = Rank(candidates, &Request{SortBy: SortDistance, Desc: true, Reference: &origin})
	assert.Equal(t, []int64{4, 1, 2, 3}, ids(hits))
	assert.Nil(t, hits[3].DistanceKm)
}

func TestPaginate(t *testing.T) {
	hits := make([]Hit, 45)
	for i := range hits {
		hits[i] = Hit{Post: &model.SalePost{ID: int64(i + 1)}}
	}

	p, err := Paginate(hits, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 45, p.Count)
	assert.Len(t, p.Results, 20)
	assert.Equal(t, 2, *p.Next)
	assert.Nil(t, p.Previous)

	p, err = Paginate(hits, 3, 20)
	require.NoError(t, err)
	assert.Len(t, p.Results, 5)
	assert.Nil(t, p.Next)
	assert.Equal(t, 2, *p.Previous)

	_, err = Paginate(hits, 4, 20)
	assert.ErrorIs(t, err, ErrInvalidPage)

	p, err = Paginate(nil, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, p.Results)
}
