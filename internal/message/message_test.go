package message

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abisalde/marketplace-service/internal/auth/authtest"
	authrepo "github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/category"
	"github.com/abisalde/marketplace-service/internal/database/databasetest"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/region"
	"github.com/abisalde/marketplace-service/internal/response/responsetest"
	"github.com/abisalde/marketplace-service/internal/salepost"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversationsPath = "/api/messages/conversations/"

type fixture struct {
	app    *fiber.App
	users  map[string]*model.User
	postID int
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := databasetest.Open(t)

	f := &fixture{users: map[string]*model.User{}}
	users := authrepo.NewUserRepository(db.Store)
	for _, name := range []string{"seller", "buyer", "other", "staff"} {
		u := &model.User{Username: name, IsActive: true, IsStaff: name == "staff"}
		require.NoError(t, users.Create(ctx, u))
		f.users[name] = u
	}

	cat := &model.Category{Name: "Strollers"}
	require.NoError(t, category.NewRepository(db.Store).CreateCategory(ctx, cat))
	reg := &model.Region{Name: "İzmir"}
	require.NoError(t, region.NewRepository(db.Store).Create(ctx, reg))

	posts := salepost.NewRepository(db.Store)
	post := &model.SalePost{
		PostID:     482913,
		Status:     model.SalePostPublished,
		SellerID:   f.users["seller"].ID,
		CategoryID: cat.ID,
		RegionID:   reg.ID,
		Title:      "Stroller",
		Price:      decimal.NewFromInt(1500),
		PostedAt:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, posts.Create(ctx, post, nil))
	f.postID = post.PostID

	tick := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	service := NewService(db.Store, NewRepository(db.Store), users, posts, WithClock(clock))

	principals := authtest.Principals{}
	for name, u := range f.users {
		principals[name] = authtest.Principal(u)
	}
	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	f.app.Use(principals.Middleware())
	NewHandler(service).RegisterRoutes(f.app.Group("/api/messages/conversations"))
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

func (f *fixture) send(t *testing.T, user string, body fiber.Map) SendResult {
	t.Helper()
	env := f.do(t, "POST", conversationsPath, user, body)
	require.Equal(t, 201, env.Code, env.Message)
	assert.Equal(t, "Message sent successfully", env.Message)

	var result SendResult
	env.Decode(t, &result)
	return result
}

func (f *fixture) list(t *testing.T, user string) []ConversationView {
	t.Helper()
	env := f.do(t, "GET", conversationsPath, user, nil)
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, "Conversations retrieved successfully", env.Message)

	var views []ConversationView
	env.Decode(t, &views)
	return views
}

func (f *fixture) detail(t *testing.T, user, uniqueID string) DetailView {
	t.Helper()
	env := f.do(t, "GET", conversationsPath+uniqueID, user, nil)
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, "Conversation details retrieved successfully", env.Message)

	var detail DetailView
	env.Decode(t, &detail)
	return detail
}

func contents(d DetailView) []string {
	out := []string{}
	for _, m := range d.Messages {
		out = append(out, m.Content)
	}
	return out
}

func uniqueIDs(views []ConversationView) []string {
	out := []string{}
	for _, v := range views {
		out = append(out, v.UniqueID)
	}
	return out
}

func TestPrivateConversation(t *testing.T) {
	f := setup(t)

	first := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "Is it available?"})
	assert.Len(t, first.ConversationID, 20)
	assert.True(t, strings.HasPrefix(first.ConversationID, "2603"))

	again := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": "482913", "content": " Still there? "})
	assert.Equal(t, first.ConversationID, again.ConversationID)
	assert.Greater(t, again.MessageID, first.MessageID)

	views := f.list(t, "seller")
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].UnreadCount)
	assert.Equal(t, model.ConversationPrivate, views[0].Type)
	assert.Equal(t, fmt.Sprintf("%d%d - Stroller", f.users["buyer"].ID, f.postID), views[0].Title)
	require.NotNil(t, views[0].SalePost)
	assert.Equal(t, f.postID, *views[0].SalePost)

	assert.Equal(t, 0, f.list(t, "buyer")[0].UnreadCount)

	detail := f.detail(t, "seller", first.ConversationID)
	assert.Equal(t, []string{"Is it available?", "Still there?"}, contents(detail))
	assert.Equal(t, "buyer", detail.Messages[0].SenderUsername)
	assert.Equal(t, 0, f.list(t, "seller")[0].UnreadCount)

	env := f.do(t, "GET", conversationsPath+first.ConversationID, "other", nil)
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You are not a member of this conversation", env.Message)
	assert.Empty(t, f.list(t, "other"))

	f.send(t, "seller", fiber.Map{"conversation_id": first.ConversationID, "content": "Yes"})
	assert.Equal(t, 1, f.list(t, "buyer")[0].UnreadCount)

	env = f.do(t, "POST", conversationsPath, "other", fiber.Map{"conversation_id": first.ConversationID, "content": "Hi"})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You are not a member of this conversation", env.Message)
}

func TestSendValidation(t *testing.T) {
	f := setup(t)
	existing := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "Hello"})

	tests := []struct {
		name string
		user string
		body fiber.Map
		code int
		want string
	}{
		{"missing type", "buyer", fiber.Map{"content": "x"}, 400, "Invalid conversation_type"},
		{"unknown type", "buyer", fiber.Map{"conversation_type": "group", "content": "x"}, 400, "Invalid conversation_type"},
		{"blank content", "buyer", fiber.Map{"conversation_type": "private", "content": "  "}, 400, "content is required"},
		{"type with conversation id", "buyer", fiber.Map{"conversation_id": existing.ConversationID, "conversation_type": "private", "content": "x"}, 400, "conversation_type should not be provided when conversation_id is given"},
		{"salepost with conversation id", "buyer", fiber.Map{"conversation_id": existing.ConversationID, "salepost_id": f.postID, "content": "x"}, 400, "salepost_id should not be provided when conversation_id is given"},
		{"title with conversation id", "buyer", fiber.Map{"conversation_id": existing.ConversationID, "title": "t", "content": "x"}, 400, "title should not be provided when conversation_id is given"},
		{"receiver with conversation id", "buyer", fiber.Map{"conversation_id": existing.ConversationID, "receiver_id": 3, "content": "x"}, 400, "receiver_id should not be provided when conversation_id is given"},
		{"unknown conversation", "buyer", fiber.Map{"conversation_id": "2603deadbeef", "content": "x"}, 404, "Conversation not found"},
		{"private without salepost", "buyer", fiber.Map{"conversation_type": "private", "content": "x"}, 400, "salepost_id is required"},
		{"private with title", "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "title": "t", "content": "x"}, 400, "title should not be provided"},
		{"private with receiver", "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "receiver_id": 1, "content": "x"}, 400, "receiver_id should not be provided"},
		{"unknown salepost", "buyer", fiber.Map{"conversation_type": "private", "salepost_id": 111111, "content": "x"}, 404, "SalePost not found"},
		{"own salepost", "seller", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "x"}, 400, "You cannot start a conversation on your own salepost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.do(t, "POST", conversationsPath, tt.user, tt.body)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.want, env.Message)
		})
	}

	assert.Equal(t, 401, f.do(t, "POST", conversationsPath, "", fiber.Map{"conversation_type": "private"}).Code)
	assert.Equal(t, 401, f.do(t, "GET", conversationsPath, "", nil).Code)
}

func TestLeaveAndRestore(t *testing.T) {
	f := setup(t)
	conv := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "Before leaving"})
	path := conversationsPath + conv.ConversationID

	env := f.do(t, "DELETE", path, "other", nil)
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You are not a member of this conversation", env.Message)

	env = f.do(t, "DELETE", path, "buyer", nil)
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, "You have left the conversation successfully", env.Message)

	assert.Empty(t, f.list(t, "buyer"))
	assert.Equal(t, 403, f.do(t, "GET", path, "buyer", nil).Code)
	assert.Equal(t, []string{"Before leaving"}, contents(f.detail(t, "seller", conv.ConversationID)))

	f.send(t, "seller", fiber.Map{"conversation_id": conv.ConversationID, "content": "Come back"})

	views := f.list(t, "buyer")
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].UnreadCount)
	assert.Equal(t, []string{"Come back"}, contents(f.detail(t, "buyer", conv.ConversationID)))

	again := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "Thanks"})
	assert.Equal(t, conv.ConversationID, again.ConversationID)

	for _, method := range []string{"PUT", "PATCH"} {
		env = f.do(t, method, path, "buyer", fiber.Map{"title": "x"})
		assert.Equal(t, 405, env.Code)
		assert.Equal(t, "Method not allowed", env.Message)
	}

	env = f.do(t, "DELETE", conversationsPath+"missing", "buyer", nil)
	assert.Equal(t, 404, env.Code)
}

func TestSupportConversation(t *testing.T) {
	f := setup(t)
	buyerID := f.users["buyer"].ID

	tests := []struct {
		name string
		user string
		body fiber.Map
		code int
		want string
	}{
		{"not staff", "buyer", fiber.Map{"conversation_type": "support", "title": "Help", "receiver_id": 1, "content": "x"}, 403, "Only superusers can create support conversations"},
		{"with salepost", "staff", fiber.Map{"conversation_type": "support", "salepost_id": f.postID, "content": "x"}, 400, "salepost_id should not be provided for support conversations"},
		{"no title", "staff", fiber.Map{"conversation_type": "support", "receiver_id": buyerID, "content": "x"}, 400, "title is required for support conversations"},
		{"no receiver", "staff", fiber.Map{"conversation_type": "support", "title": "Help", "content": "x"}, 400, "receiver_id is required for support conversations"},
		{"self", "staff", fiber.Map{"conversation_type": "support", "title": "Help", "receiver_id": f.users["staff"].ID, "content": "x"}, 400, "You cannot create a support conversation with yourself"},
		{"unknown receiver", "staff", fiber.Map{"conversation_type": "support", "title": "Help", "receiver_id": 9999, "content": "x"}, 404, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.do(t, "POST", conversationsPath, tt.user, tt.body)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.want, env.Message)
		})
	}

	conv := f.send(t, "staff", fiber.Map{"conversation_type": "support", "title": "Your listing", "receiver_id": buyerID, "content": "Please add photos"})

	assert.Equal(t, []string{conv.ConversationID}, uniqueIDs(f.list(t, "buyer")))
	assert.Equal(t, []string{conv.ConversationID}, uniqueIDs(f.list(t, "staff")))
	assert.Empty(t, f.list(t, "seller"))

	f.send(t, "buyer", fiber.Map{"conversation_id": conv.ConversationID, "content": "Done"})
	assert.Equal(t, []string{"Please add photos", "Done"}, contents(f.detail(t, "staff", conv.ConversationID)))

	env := f.do(t, "POST", conversationsPath, "other", fiber.Map{"conversation_id": conv.ConversationID, "content": "Me too"})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You are not authorized to access this conversation", env.Message)

	env = f.do(t, "DELETE", conversationsPath+conv.ConversationID, "buyer", nil)
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You cannot leave this conversation", env.Message)
}

func TestAnnouncement(t *testing.T) {
	f := setup(t)

	env := f.do(t, "POST", conversationsPath, "buyer", fiber.Map{"conversation_type": "announcement", "title": "News", "content": "x"})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "Only superusers can create announcement conversations", env.Message)

	env = f.do(t, "POST", conversationsPath, "staff", fiber.Map{"conversation_type": "announcement", "content": "x"})
	assert.Equal(t, "title is required for announcement conversations", env.Message)

	env = f.do(t, "POST", conversationsPath, "staff", fiber.Map{"conversation_type": "announcement", "title": "News", "receiver_id": 2, "content": "x"})
	assert.Equal(t, "receiver_id should not be provided for announcement conversations", env.Message)

	private := f.send(t, "buyer", fiber.Map{"conversation_type": "private", "salepost_id": f.postID, "content": "Hello"})
	news := f.send(t, "staff", fiber.Map{"conversation_type": "announcement", "title": "News", "content": "New categories are live"})

	assert.Equal(t, []string{news.ConversationID, private.ConversationID}, uniqueIDs(f.list(t, "seller")))
	assert.Equal(t, []string{news.ConversationID}, uniqueIDs(f.list(t, "other")))

	assert.Equal(t, 1, f.list(t, "other")[0].UnreadCount)
	detail := f.detail(t, "other", news.ConversationID)
	assert.Equal(t, []string{"New categories are live"}, contents(detail))
	assert.Nil(t, detail.SalePost)
	assert.Equal(t, 0, f.list(t, "other")[0].UnreadCount)

	env = f.do(t, "POST", conversationsPath, "other", fiber.Map{"conversation_id": news.ConversationID, "content": "Thanks"})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, "You are not authorized to access this conversation", env.Message)

	f.send(t, "seller", fiber.Map{"conversation_id": private.ConversationID, "content": "Hi"})
	assert.Equal(t, []string{private.ConversationID, news.ConversationID}, uniqueIDs(f.list(t, "seller")))
}
