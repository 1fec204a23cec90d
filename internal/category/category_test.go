package category

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/database/databasetest"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    Repository
	service *Service
	cache   *databasetest.MemoryCache
	app     *fiber.App

	vehicles, cars, bikes, sedan int64
	color, mileage               *model.Attribute
}

func ptr(v int64) *int64 { return &v }

func setupCategories(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db := databasetest.Open(t)
	f := &fixture{repo: NewRepository(db.Store), cache: databasetest.NewMemoryCache()}
	f.service = NewService(f.repo, f.cache)

	newborn := &model.UsageRange{UniqueID: 0, Name: "0-6 months"}
	toddler := &model.UsageRange{UniqueID: 1, Name: "6-12 months"}
	kid := &model.UsageRange{UniqueID: 2, Name: "1-3 years"}
	for _, u := range []*model.UsageRange{newborn, toddler, kid} {
		require.NoError(t, f.repo.CreateUsageRange(ctx, u))
	}

	vehicles := &model.Category{Name: "Vehicles", Icon: "car.svg"}
	require.NoError(t, f.service.Create(ctx, vehicles))
	cars := &model.Category{Name: "Cars", ParentID: ptr(vehicles.ID), MinUsageID: ptr(newborn.ID), MaxUsageID: ptr(toddler.ID)}
	require.NoError(t, f.service.Create(ctx, cars))
	bikes := &model.Category{Name: "Bikes", ParentID: ptr(vehicles.ID)}
	require.NoError(t, f.service.Create(ctx, bikes))
	sedan := &model.Category{Name: "Sedan", ParentID: ptr(cars.ID)}
	require.NoError(t, f.service.Create(ctx, sedan))
	f.vehicles, f.cars, f.bikes, f.sedan = vehicles.ID, cars.ID, bikes.ID, sedan.ID

	f.color = &model.Attribute{
		UniqueName: "color", DisplayName: "Color", DataType: model.AttributeTypeChoice,
		Choices: []model.AttributeChoice{{Value: "red"}, {Value: "blue"}},
	}
	require.NoError(t, f.repo.CreateAttribute(ctx, f.color))
	f.mileage = &model.Attribute{UniqueName: "mileage", DisplayName: "Mileage", DataType: model.AttributeTypeNumber, IsRequired: true}
	require.NoError(t, f.repo.CreateAttribute(ctx, f.mileage))
	require.NoError(t, f.repo.AttachAttribute(ctx, cars.ID, f.color.ID))
	require.NoError(t, f.repo.AttachAttribute(ctx, cars.ID, f.mileage.ID))

	_, err := f.repo.CreateBrand(ctx, "Volvo", cars.ID)
	require.NoError(t, err)

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	NewHandler(f.service).RegisterRoutes(f.app.Group("/api/category"))
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, app *fiber.App, path string) envelope {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, resp.StatusCode, env.Code)
	return env
}

func TestListNestsSubcategories(t *testing.T) {
	f := setupCategories(t)

	env := get(t, f.app, "/api/category/list")
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Categories retrieved successfully", env.Message)

	var roots []*Node
	require.NoError(t, json.Unmarshal(env.Data, &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, "Vehicles", roots[0].Name)
	require.NotNil(t, roots[0].IconURL)
	assert.Equal(t, "car.svg", *roots[0].IconURL)
	require.Len(t, roots[0].Subcategories, 2)

	cars := roots[0].Subcategories[0]
	assert.Equal(t, "Cars", cars.Name)
	require.Len(t, cars.Subcategories, 1)
	assert.Equal(t, "Sedan", cars.Subcategories[0].Name)
	assert.Nil(t, roots[0].Subcategories[1].Subcategories)
}

func TestListIsCachedAndInvalidatedOnCreate(t *testing.T) {
	f := setupCategories(t)
	ctx := context.Background()

	_, err := f.service.List(ctx)
	require.NoError(t, err)

	var cached []*model.Category
	require.NoError(t, f.cache.Get(ctx, allCacheKey, &cached))
	assert.Len(t, cached, 4)

	require.NoError(t, f.service.Create(ctx, &model.Category{Name: "Boats"}))
	assert.ErrorIs(t, f.cache.Get(ctx, allCacheKey, &cached), database.ErrCacheMiss)

	roots, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestDetail(t *testing.T) {
	f := setupCategories(t)

	env := get(t, f.app, "/api/category/"+itoa(f.cars))
	assert.Equal(t, "Category retrieved successfully", env.Message)

	var detail Detail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Cars", detail.Name)
	require.Len(t, detail.Subcategories, 1)
	assert.Equal(t, "Sedan", detail.Subcategories[0].Name)

	require.Len(t, detail.UsageRange, 2)
	assert.Equal(t, "0-6 months", detail.UsageRange[0].Name)
	assert.Equal(t, "6-12 months", detail.UsageRange[1].Name)

	require.Len(t, detail.Attributes, 2)
	require.Len(t, detail.Brands, 1)
	assert.Equal(t, "Volvo", detail.Brands[0].Name)

	env = get(t, f.app, "/api/category/9999")
	assert.Equal(t, 404, env.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Category not found", env.Message)
}

func TestAttributesAndChoices(t *testing.T) {
	f := setupCategories(t)

	env := get(t, f.app, "/api/category/"+itoa(f.cars)+"/attributes")
	assert.Equal(t, "Attributes retrieved successfully", env.Message)
	var attrs []*model.Attribute
	require.NoError(t, json.Unmarshal(env.Data, &attrs))
	require.Len(t, attrs, 2)

	env = get(t, f.app, "/api/category/attributes/"+itoa(f.color.ID)+"/choices")
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Choices retrieved successfully", env.Message)
	var choices []model.AttributeChoice
	require.NoError(t, json.Unmarshal(env.Data, &choices))
	require.Len(t, choices, 2)

	env = get(t, f.app, "/api/category/attributes/"+itoa(f.mileage.ID)+"/choices")
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "Attribute has no choices", env.Message)

	env = get(t, f.app, "/api/category/attributes/9999/choices")
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Attribute not found", env.Message)
}

func TestCreateCategoryRejectsInvertedUsageRange(t *testing.T) {
	f := setupCategories(t)
	ctx := context.Background()

	ranges, err := f.repo.UsageRangesBetween(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, ranges, 3)

	err = f.repo.CreateCategory(ctx, &model.Category{
		Name:       "Backwards",
		MinUsageID: ptr(ranges[2].ID),
		MaxUsageID: ptr(ranges[0].ID),
	})
	assert.ErrorIs(t, err, ErrInvalidUsageRange)
}

func TestChoicesOnlyForChoiceTypes(t *testing.T) {
	f := setupCategories(t)

	err := f.repo.CreateAttribute(context.Background(), &model.Attribute{
		UniqueName: "weight", DisplayName: "Weight", DataType: model.AttributeTypeText,
		Choices: []model.AttributeChoice{{Value: "heavy"}},
	})
	assert.Error(t, err)

	_, err = f.repo.Attribute(context.Background(), 3)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestChildrenIndexesTree(t *testing.T) {
	f := setupCategories(t)

	children, err := f.service.Children(context.Background())
	require.NoError(t, err)
	got := children.Descendants(f.vehicles)
	assert.Len(t, got, 4)
	assert.Contains(t, got, f.sedan)
	assert.Contains(t, got, f.bikes)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
