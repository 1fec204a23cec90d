package salepost

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/abisalde/marketplace-service/internal/auth/authtest"
	authrepo "github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/category"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/database/databasetest"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/region"
	"github.com/abisalde/marketplace-service/internal/response/responsetest"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	service *Service
	repo    Repository
	app     *fiber.App
	clock   *clock

	seller, buyer, staff *model.User

	baby, clothes, bodysuits, toys, rattles int64
	istanbul, kadikoy, ankara               int64
	defaultUsage, newborn, infant           *model.UsageRange
	gender, size, note                      *model.Attribute
}

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := databasetest.Open(t)

	f := &fixture{clock: &clock{t: base}}

	users := authrepo.NewUserRepository(db.Store)
	f.seller = &model.User{Username: "seller", IsActive: true}
	f.buyer = &model.User{Username: "buyer", IsActive: true}
	f.staff = &model.User{Username: "staff", IsActive: true, IsStaff: true}
	for _, u := range []*model.User{f.seller, f.buyer, f.staff} {
		require.NoError(t, users.Create(ctx, u))
	}

	catRepo := category.NewRepository(db.Store)
	f.defaultUsage = &model.UsageRange{UniqueID: category.DefaultUsageRangeUniqueID, Name: "Not specified"}
	f.newborn = &model.UsageRange{UniqueID: 0, Name: "0-6 months"}
	f.infant = &model.UsageRange{UniqueID: 1, Name: "6-12 months"}
	for _, u := range []*model.UsageRange{f.defaultUsage, f.newborn, f.infant} {
		require.NoError(t, catRepo.CreateUsageRange(ctx, u))
	}

	newCategory := func(name string, parent *int64) int64 {
		c := &model.Category{Name: name, ParentID: parent}
		require.NoError(t, catRepo.CreateCategory(ctx, c))
		return c.ID
	}
	f.baby = newCategory("Baby", nil)
	f.clothes = newCategory("Clothes", &f.baby)
	f.bodysuits = newCategory("Bodysuits", &f.clothes)
	f.toys = newCategory("Toys", &f.baby)
	f.rattles = newCategory("Rattles", &f.toys)

	f.gender = &model.Attribute{UniqueName: "gender", DisplayName: "Gender", DataType: model.AttributeTypeChoice, IsRequired: true,
		Choices: []model.AttributeChoice{{Value: "female"}, {Value: "male"}, {Value: "unisex"}}}
	f.size = &model.Attribute{UniqueName: "size", DisplayName: "Size", DataType: model.AttributeTypeNumber}
	f.note = &model.Attribute{UniqueName: "note", DisplayName: "Note", DataType: model.AttributeTypeText}
	for _, a := range []*model.Attribute{f.gender, f.size, f.note} {
		require.NoError(t, catRepo.CreateAttribute(ctx, a))
		require.NoError(t, catRepo.AttachAttribute(ctx, f.clothes, a.ID))
	}
	require.NoError(t, catRepo.AttachAttribute(ctx, f.bodysuits, f.gender.ID))

	regionRepo := region.NewRepository(db.Store)
	newRegion := func(name string, parent *int64, lat, lng float64) int64 {
		r := &model.Region{Name: name, ParentID: parent, Latitude: fptr(lat), Longitude: fptr(lng)}
		require.NoError(t, regionRepo.Create(ctx, r))
		return r.ID
	}
	f.istanbul = newRegion("İstanbul", nil, 41.0082, 28.9784)
	f.kadikoy = newRegion("Kadıköy", &f.istanbul, 40.9906, 29.0287)
	f.ankara = newRegion("Ankara", nil, 39.9334, 32.8597)

	categories := category.NewService(catRepo, databasetest.NewMemoryCache())
	f.repo = NewRepository(db.Store)
	f.service = NewService(f.repo, categories, region.NewService(regionRepo), WithClock(f.clock.now))

	principals := authtest.Principals{
		"seller": authtest.Principal(f.seller, "salepost.add_salepost"),
		"buyer":  authtest.Principal(f.buyer, "salepost.add_salepost"),
		"staff":  authtest.Principal(f.staff),
		"guest":  authtest.Principal(&model.User{ID: 99, IsActive: true}),
	}
	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	f.app.Use(principals.Middleware())
	NewHandler(f.service).RegisterRoutes(f.app.Group("/api/salepost"))
	return f
}

func (f *fixture) do(t *testing.T, method, path, user string, body any) responsetest.Envelope {
	t.Helper()
	req := responsetest.JSON(t, method, path, body)
	if user != "" {
		req.Header.Set(authtest.UserHeader, user)
	}
	env, _ := responsetest.Do(t, f.app, req)
	return env
}

func (f *fixture) validPayload() fiber.Map {
	return fiber.Map{
		"category":      f.clothes,
		"region":        f.kadikoy,
		"post_title":    "Striped bodysuit",
		"description":   "Barely worn",
		"product_price": 10,
		"attributes":    fiber.Map{"gender": "female"},
	}
}

// create posts a listing one minute after the previous one and returns its post id.
func (f *fixture) create(t *testing.T, changes fiber.Map) int {
	t.Helper()
	f.clock.t = f.clock.t.Add(time.Minute)

	payload := f.validPayload()
	for k, v := range changes {
		payload[k] = v
	}
	env := f.do(t, "POST", "/api/salepost/", "seller", payload)
	require.Equal(t, 201, env.Code, env.Message)

	var data struct {
		PostID int `json:"postId"`
	}
	env.Decode(t, &data)
	require.GreaterOrEqual(t, data.PostID, 100000)
	return data.PostID
}

type listData struct {
	Count    int     `json:"count"`
	Page     int     `json:"page"`
	Limit    int     `json:"limit"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []View  `json:"results"`
}

func postIDs(views []View) []int {
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = v.PostID
	}
	return out
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestCreateValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name    string
		changes fiber.Map
		want    string
	}{
		{"unknown min usage", fiber.Map{"min_usage": 9999}, "Min usage range id is not valid."},
		{"malformed max usage", fiber.Map{"max_usage": "x"}, "Max usage range id is not valid."},
		{"inverted usage", fiber.Map{"min_usage": f.infant.ID, "max_usage": f.newborn.ID}, "Min usage range must be less than or equal to max usage range."},
		{"unknown category", fiber.Map{"category": 9999}, "Category id is not valid."},
		{"unknown region", fiber.Map{"region": 9999}, "Region id is not valid."},
		{"price as string", fiber.Map{"product_price": "10"}, "Product price is required and must be a number."},
		{"missing price", fiber.Map{"product_price": nil}, "Product price is required and must be a number."},
		{"negative price", fiber.Map{"product_price": -1}, "Product price cannot be negative."},
		{"latitude alone", fiber.Map{"latitude": 41}, "Invalid latitude or longitude."},
		{"latitude out of range", fiber.Map{"latitude": 100, "longitude": 20}, "Latitude or longitude out of range."},
		{"empty title", fiber.Map{"post_title": "  "}, "Title is required."},
		{"long title", fiber.Map{"post_title": strings.Repeat("ş", 71)}, "Title must be at most 70 characters."},
		{"missing required attribute", fiber.Map{"attributes": fiber.Map{}}, "gender is required."},
		{"number attribute as text", fiber.Map{"attributes": fiber.Map{"gender": "female", "size": "big"}}, "size must be a number."},
		{"unknown choice", fiber.Map{"attributes": fiber.Map{"gender": "purple"}}, "gender is not a valid choice."},
		{"text attribute as number", fiber.Map{"attributes": fiber.Map{"gender": "male", "note": 5}}, "note must be a string."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := f.validPayload()
			for k, v := range tt.changes {
				payload[k] = v
			}
			env := f.do(t, "POST", "/api/salepost/", "seller", payload)
			assert.Equal(t, 400, env.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.Message)
		})
	}

	assert.Equal(t, 401, f.do(t, "POST", "/api/salepost/", "", f.validPayload()).Code)
	assert.Equal(t, 403, f.do(t, "POST", "/api/salepost/", "guest", f.validPayload()).Code)
}

func TestCreateAndRetrieve(t *testing.T) {
	f := setup(t)

	id := f.create(t, fiber.Map{
		"product_price": 12.5,
		"latitude":      "41.01",
		"longitude":     28.97,
		"min_usage":     f.newborn.ID,
		"max_usage":     f.infant.ID,
		"attributes":    fiber.Map{"gender": f.gender.Choices[1].ID, "size": 3, "note": " soft "},
	})

	env := f.do(t, "GET", "/api/salepost/"+strconv.Itoa(id), "", nil)
	require.Equal(t, 200, env.Code)
	assert.Equal(t, "Salepost retrieved successfully", env.Message)

	env = f.do(t, "GET", "/api/salepost/"+strconv.Itoa(id), "", nil)
	var view View
	env.Decode(t, &view)
	assert.Equal(t, 2, view.Viewed)
	assert.Equal(t, "published", view.Status)
	assert.Equal(t, "seller", view.Seller)
	assert.Equal(t, "Clothes", view.Category)
	assert.Equal(t, "Kadıköy", view.Region)
	assert.Equal(t, "12.50", view.Price)
	assert.Equal(t, 41.01, *view.Latitude)
	assert.Equal(t, []AttributeView{
		{Attribute: "gender", Value: "male"},
		{Attribute: "size", Value: float64(3)},
		{Attribute: "note", Value: "soft"},
	}, view.Attributes)

	env = f.do(t, "GET", "/api/salepost/123", "", nil)
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Salepost not found", env.Message)
}

type listFixture struct {
	*fixture
	p1, p2, p3, p4 int
}

func setupListings(t *testing.T) *listFixture {
	f := setup(t)
	lf := &listFixture{fixture: f}
	lf.p1 = f.create(t, fiber.Map{"product_price": 100, "post_title": "Red dress"})
	lf.p2 = f.create(t, fiber.Map{
		"category": f.bodysuits, "region": f.istanbul, "product_price": 50,
		"latitude": 41.0082, "longitude": 28.979,
		"min_usage": f.newborn.ID, "max_usage": f.infant.ID,
		"attributes": fiber.Map{"gender": "male"},
	})
	lf.p3 = f.create(t, fiber.Map{"category": f.toys, "region": f.ankara, "product_price": 75, "post_title": "Blocks", "attributes": nil})
	lf.p4 = f.create(t, fiber.Map{"category": f.rattles, "region": f.ankara, "product_price": 20, "post_title": "Wooden rattle", "attributes": nil})
	f.clock.t = f.clock.t.Add(10 * time.Minute)
	return lf
}

func (lf *listFixture) list(t *testing.T, query string) (responsetest.Envelope, listData) {
	t.Helper()
	env := lf.do(t, "GET", "/api/salepost/?"+query, "", nil)
	var data listData
	if env.Code == 200 {
		env.Decode(t, &data)
	}
	return env, data
}

func TestListFiltersAndSorting(t *testing.T) {
	lf := setupListings(t)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"default publish order", "", []int{lf.p1, lf.p2, lf.p3, lf.p4}},
		{"newest first", "order=desc", []int{lf.p4, lf.p3, lf.p2, lf.p1}},
		{"price ascending", "sort_by=price&order=asc", []int{lf.p4, lf.p2, lf.p3, lf.p1}},
		{"price range", "price_min=30&price_max=90&sort_by=price", []int{lf.p2, lf.p3}},
		{"price bounds are inclusive", "price_min=20.00&price_max=75&sort_by=price", []int{lf.p4, lf.p2, lf.p3}},
		{"price bounds keep cents", "price_min=20.01&price_max=74.99", []int{lf.p2}},
		{"category with descendants", "category_ids=" + itoa(lf.clothes), []int{lf.p1, lf.p2}},
		{"root category", "category_ids=" + itoa(lf.baby), []int{lf.p1, lf.p2, lf.p3, lf.p4}},
		{"invalid category ids match nothing", "category_ids=abc", []int{}},
		{"region with descendants", "region_ids=" + itoa(lf.istanbul), []int{lf.p1, lf.p2}},
		{"keyword is case insensitive", "keyword=WOODEN", []int{lf.p4}},
		{"published window", "published_last_days=0", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, data := lf.list(t, tt.query)
			require.Equal(t, 200, env.Code, env.Message)
			assert.Equal(t, "Salepost list retrieved successfully", env.Message)
			assert.Equal(t, tt.want, postIDs(data.Results))
			assert.Equal(t, len(tt.want), data.Count)
		})
	}
}

func TestListByDistance(t *testing.T) {
	lf := setupListings(t)

	env, data := lf.list(t, "sort_by=distance&user_latitude=41.0082&user_longitude=28.9784")
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, []int{lf.p2, lf.p1, lf.p3, lf.p4}, postIDs(data.Results))
	assert.Equal(t, "Less than 1 km", data.Results[0].DistanceKm)
	assert.True(t, strings.HasSuffix(data.Results[1].DistanceKm, " km"))
	assert.True(t, strings.HasPrefix(data.Results[1].DistanceKm, "4."), data.Results[1].DistanceKm)

	_, data = lf.list(t, "max_distance=10&user_latitude=41.0082&user_longitude=28.9784")
	assert.Equal(t, []int{lf.p1, lf.p2}, postIDs(data.Results))

	_, data = lf.list(t, "max_distance=500&user_latitude=41.0082&user_longitude=28.9784")
	assert.Equal(t, []int{lf.p1, lf.p2}, postIDs(data.Results), "max_distance is clamped to 50 km")

	_, data = lf.list(t, "sort_by=distance&user_region_id="+itoa(lf.ankara))
	assert.Equal(t, []int{lf.p3, lf.p4, lf.p1, lf.p2}, postIDs(data.Results))
	assert.Equal(t, "Less than 1 km", data.Results[0].DistanceKm)

	env, _ = lf.list(t, "sort_by=distance&user_region_id=9999")
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Region not found.", env.Message)

	env, _ = lf.list(t, "sort_by=distance")
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "user_latitude & user_longitude or user_region_id is required for distance filtering or sorting.", env.Message)
}

func TestListPagination(t *testing.T) {
	lf := setupListings(t)

	env, data := lf.list(t, "limit=2")
	require.Equal(t, 200, env.Code)
	assert.Equal(t, 4, data.Count)
	assert.Equal(t, 2, data.Limit)
	assert.Equal(t, []int{lf.p1, lf.p2}, postIDs(data.Results))
	require.NotNil(t, data.Next)
	assert.Contains(t, *data.Next, "page=2")
	assert.Contains(t, *data.Next, "limit=2")
	assert.Nil(t, data.Previous)

	_, data = lf.list(t, "limit=2&page=2")
	assert.Equal(t, []int{lf.p3, lf.p4}, postIDs(data.Results))
	assert.Nil(t, data.Next)
	require.NotNil(t, data.Previous)

	env, _ = lf.list(t, "limit=2&page=3")
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Invalid page.", env.Message)
}

func TestHome(t *testing.T) {
	lf := setupListings(t)

	env := lf.do(t, "GET", "/api/salepost/home", "", nil)
	require.Equal(t, 200, env.Code)
	assert.Equal(t, "Home saleposts retrieved successfully", env.Message)
	var views []View
	env.Decode(t, &views)
	assert.Equal(t, []int{lf.p4, lf.p3, lf.p2, lf.p1}, postIDs(views))

	env = lf.do(t, "GET", "/api/salepost/home?gender=female", "", nil)
	env.Decode(t, &views)
	assert.Equal(t, []int{lf.p1}, postIDs(views))

	env = lf.do(t, "GET", "/api/salepost/home?min_usage=0", "", nil)
	env.Decode(t, &views)
	assert.Equal(t, []int{lf.p2}, postIDs(views))

	env = lf.do(t, "GET", "/api/salepost/home?max_usage=0", "", nil)
	env.Decode(t, &views)
	assert.Equal(t, []int{lf.p4, lf.p3, lf.p1}, postIDs(views))

	env = lf.do(t, "GET", "/api/salepost/home?min_usage=abc", "", nil)
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "min_usage must be an integer.", env.Message)

	env = lf.do(t, "GET", "/api/salepost/home?min_usage=abc&max_usage=1", "", nil)
	assert.Equal(t, "min_usage and max_usage must be integers.", env.Message)
}

func TestSimilar(t *testing.T) {
	lf := setupListings(t)

	similar := func(postID int) []int {
		env := lf.do(t, "GET", "/api/salepost/"+strconv.Itoa(postID)+"/similar", "", nil)
		require.Equal(t, 200, env.Code, env.Message)
		assert.Equal(t, "Similar saleposts retrieved successfully", env.Message)
		var views []View
		env.Decode(t, &views)
		return postIDs(views)
	}

	assert.Equal(t, []int{lf.p3}, similar(lf.p1))
	assert.Equal(t, []int{lf.p4}, similar(lf.p2))

	extra := lf.create(t, fiber.Map{"post_title": "Blue dress"})
	assert.Equal(t, []int{extra, lf.p3}, similar(lf.p1))

	env := lf.do(t, "GET", "/api/salepost/999999/similar", "", nil)
	assert.Equal(t, 404, env.Code)
}

func TestSimilarGroups(t *testing.T) {
	all := []*model.Category{
		{ID: 1, Name: "Baby"},
		{ID: 2, Name: "Clothes", ParentID: iptr(1)},
		{ID: 3, Name: "Toys", ParentID: iptr(1)},
		{ID: 4, Name: "Bodysuits", ParentID: iptr(2)},
		{ID: 5, Name: "Rattles", ParentID: iptr(3)},
		{ID: 6, Name: "Home"},
	}

	assert.Equal(t, [][]int64{{4}, {4}, {4, 5}}, similarGroups(all, 4))
	assert.Equal(t, [][]int64{{1}, {1, 6}}, similarGroups(all, 1))
	assert.Equal(t, [][]int64{{42}}, similarGroups(all, 42))
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	id := f.create(t, fiber.Map{"attributes": fiber.Map{"gender": "female", "size": 2}})
	path := "/api/salepost/" + strconv.Itoa(id)

	env := f.do(t, "PUT", path, "buyer", fiber.Map{"post_title": "Mine now"})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You have no access to edit", env.Message)

	env = f.do(t, "PUT", path, "seller", fiber.Map{"product_price": -5})
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "Product price is not valid.", env.Message)

	env = f.do(t, "PUT", path, "seller", fiber.Map{"attributes": fiber.Map{"size": "huge"}})
	assert.Equal(t, "size must be a number.", env.Message)

	env = f.do(t, "PUT", path, "seller", fiber.Map{
		"post_title":    "Updated bodysuit",
		"product_price": 8,
		"attributes":    fiber.Map{"size": 4, "note": "new tag"},
	})
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, "Salepost has been updated", env.Message)

	env = f.do(t, "GET", path, "", nil)
	var view View
	env.Decode(t, &view)
	assert.Equal(t, "Updated bodysuit", view.Title)
	assert.Equal(t, "8.00", view.Price)
	assert.Equal(t, []AttributeView{
		{Attribute: "gender", Value: "female"},
		{Attribute: "size", Value: float64(4)},
		{Attribute: "note", Value: "new tag"},
	}, view.Attributes)

	env = f.do(t, "PATCH", path, "seller", fiber.Map{"post_title": "x"})
	assert.Equal(t, 405, env.Code)
	assert.Equal(t, "Partial update endpoint is not available. Please use the update endpoint", env.Message)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	first := f.create(t, nil)
	second := f.create(t, nil)

	env := f.do(t, "DELETE", "/api/salepost/"+strconv.Itoa(first), "buyer", nil)
	assert.Equal(t, 403, env.Code)

	env = f.do(t, "DELETE", "/api/salepost/"+strconv.Itoa(first), "seller", nil)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Salepost deleted successfully", env.Message)

	env = f.do(t, "DELETE", "/api/salepost/"+strconv.Itoa(second), "staff", nil)
	assert.Equal(t, 200, env.Code)

	env = f.do(t, "DELETE", "/api/salepost/"+strconv.Itoa(second), "staff", nil)
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Salepost not found", env.Message)
}

func TestCreateRollsBackOnAttributeFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	post := &model.SalePost{
		PostID:     777001,
		Status:     model.SalePostPublished,
		SellerID:   f.seller.ID,
		CategoryID: f.clothes,
		RegionID:   f.istanbul,
		Title:      "Twin sizes",
		Price:      decimal.RequireFromString("15.00"),
		PostedAt:   base,
		UpdatedAt:  base,
	}
	attrs := []*model.SalePostAttribute{
		{AttributeID: f.size.ID, ValueNumber: fptr(2)},
		{AttributeID: f.size.ID, ValueNumber: fptr(3)},
	}

	err := f.repo.Create(ctx, post, attrs)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err), err)

	_, err = f.repo.GetByPostID(ctx, 777001)
	assert.True(t, errors.Is(err, database.ErrNotFound), err)
}
