package region

import (
	"context"
	"strconv"
	"testing"

	"github.com/abisalde/marketplace-service/internal/auth/authtest"
	"github.com/abisalde/marketplace-service/internal/database/databasetest"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/response/responsetest"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regionFixture struct {
	service *Service
	app     *fiber.App

	istanbul, kadikoy, moda, ankara int64
}

func setupRegions(t *testing.T) *regionFixture {
	t.Helper()
	ctx := context.Background()

	db := databasetest.Open(t)
	repo := NewRepository(db.Store)
	f := &regionFixture{service: NewService(repo)}

	create := func(name string, parent *int64) int64 {
		r := &model.Region{Name: name, ParentID: parent}
		require.NoError(t, repo.Create(ctx, r))
		return r.ID
	}
	f.istanbul = create("İstanbul", nil)
	f.kadikoy = create("Kadıköy", &f.istanbul)
	f.moda = create("Moda", &f.kadikoy)
	f.ankara = create("Ankara", nil)
	create("Çankaya", &f.ankara)

	principals := authtest.Principals{
		"editor": authtest.Principal(&model.User{ID: 1, IsActive: true},
			"region.add_region", "region.change_region", "region.delete_region"),
		"viewer": authtest.Principal(&model.User{ID: 2, IsActive: true}),
	}

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	f.app.Use(principals.Middleware())
	NewHandler(f.service).RegisterRoutes(f.app.Group("/api/region"))
	return f
}

func (f *regionFixture) do(t *testing.T, method, path, user string, body any) responsetest.Envelope {
	t.Helper()
	req := responsetest.JSON(t, method, path, body)
	if user != "" {
		req.Header.Set(authtest.UserHeader, user)
	}
	env, _ := responsetest.Do(t, f.app, req)
	return env
}

func TestTurkishLower(t *testing.T) {
	assert.Equal(t, "istanbul", TurkishLower("İSTANBUL"))
	assert.Equal(t, "ısparta", TurkishLower("ISPARTA"))
}

func TestListRoots(t *testing.T) {
	f := setupRegions(t)

	env := f.do(t, "GET", "/api/region/", "", nil)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Regions retrieved successfully.", env.Message)

	var roots []RootView
	env.Decode(t, &roots)
	require.Len(t, roots, 2)
	assert.Equal(t, "İstanbul", roots[0].Name)
	assert.Equal(t, []Summary{{ID: f.kadikoy, Name: "Kadıköy"}}, roots[0].Subregions)
}

func TestSearch(t *testing.T) {
	f := setupRegions(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		keyword string
		want    []Match
	}{
		{
			name:    "province yields its districts",
			keyword: "İST",
			want:    []Match{{ID: f.kadikoy, Name: "Kadıköy", FullPath: "İstanbul / Kadıköy", Level: LevelIlce}},
		},
		{
			name:    "district yields itself and neighbourhoods",
			keyword: "kadı",
			want: []Match{
				{ID: f.kadikoy, Name: "Kadıköy", FullPath: "İstanbul / Kadıköy", Level: LevelIlce},
				{ID: f.moda, Name: "Moda", FullPath: "İstanbul / Kadıköy / Moda", Level: LevelMahalle},
			},
		},
		{
			name:    "neighbourhood yields itself",
			keyword: "mo",
			want:    []Match{{ID: f.moda, Name: "Moda", FullPath: "İstanbul / Kadıköy / Moda", Level: LevelMahalle}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.service.Search(ctx, tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	env := f.do(t, "GET", "/api/region/?keyword=zzz", "", nil)
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Regions not found.", env.Message)
}

func TestRetrieveSubtree(t *testing.T) {
	f := setupRegions(t)

	env := f.do(t, "GET", "/api/region/"+itoa(f.istanbul), "", nil)
	assert.Equal(t, "Region retrieved successfully.", env.Message)

	var node TreeNode
	env.Decode(t, &node)
	require.Len(t, node.Subregions, 1)
	require.Len(t, node.Subregions[0].Subregions, 1)
	assert.Equal(t, "Moda", node.Subregions[0].Subregions[0].Name)
	assert.Nil(t, node.Subregions[0].Subregions[0].Subregions)

	env = f.do(t, "GET", "/api/region/9999", "", nil)
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, "Region not found.", env.Message)
}

func TestCreate(t *testing.T) {
	f := setupRegions(t)

	env := f.do(t, "POST", "/api/region/", "viewer", fiber.Map{"name": "İzmir"})
	assert.Equal(t, 403, env.Code)

	env = f.do(t, "POST", "/api/region/", "", fiber.Map{"name": "İzmir"})
	assert.Equal(t, 401, env.Code)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": "İzmir"})
	assert.Equal(t, 201, env.Code)
	assert.Equal(t, "İzmir has been created as a root region", env.Message)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": "Bornova", "parent": "1"})
	assert.Equal(t, 201, env.Code)
	assert.Equal(t, "Bornova has been created as a child to İstanbul", env.Message)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": "İzmir"})
	assert.Equal(t, 406, env.Code)
	assert.Equal(t, "Already exists.", env.Message)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": "Moda", "parent": f.kadikoy})
	assert.Equal(t, 406, env.Code)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": "Karşıyaka", "parent": 777})
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "777 is not a valid parent, please select an existing parent region", env.Message)

	env = f.do(t, "POST", "/api/region/", "editor", fiber.Map{"name": " "})
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "name is required", env.Message)
}

func TestUpdate(t *testing.T) {
	f := setupRegions(t)
	path := "/api/region/" + itoa(f.kadikoy)

	env := f.do(t, "PUT", path, "editor", fiber.Map{})
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "name or parent is required", env.Message)

	env = f.do(t, "PUT", "/api/region/"+itoa(f.istanbul), "editor", fiber.Map{"parent": f.moda})
	assert.Equal(t, 400, env.Code)
	assert.Equal(t, "Invalid parent region", env.Message)

	env = f.do(t, "PUT", path, "editor", fiber.Map{"parent": f.kadikoy})
	assert.Equal(t, "Invalid parent region", env.Message)

	env = f.do(t, "PUT", path, "editor", fiber.Map{"name": "Üsküdar", "parent": f.ankara})
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Region updated successfully", env.Message)

	r, err := f.service.Get(context.Background(), f.kadikoy)
	require.NoError(t, err)
	assert.Equal(t, "Üsküdar", r.Name)
	assert.Equal(t, f.ankara, *r.ParentID)

	env = f.do(t, "PUT", path, "editor", fiber.Map{"name": "Çankaya"})
	assert.Equal(t, 406, env.Code)

	env = f.do(t, "PATCH", path, "editor", fiber.Map{"name": "x"})
	assert.Equal(t, 405, env.Code)
	assert.Equal(t, "This endpoint is not available. Please use the update endpoint", env.Message)
}

func TestDelete(t *testing.T) {
	f := setupRegions(t)

	env := f.do(t, "DELETE", "/api/region/"+itoa(f.ankara), "editor", nil)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "Region deleted successfully", env.Message)

	env = f.do(t, "DELETE", "/api/region/"+itoa(f.ankara), "editor", nil)
	assert.Equal(t, 404, env.Code)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
