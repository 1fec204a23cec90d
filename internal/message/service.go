package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abisalde/marketplace-service/internal/auth"
	authrepo "github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/salepost"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/verification"
	"go.uber.org/zap"
)

const uniqueIDAttempts = 5

var (
	ErrConversationNotFound = customErrors.NotFound("Conversation not found")
	ErrNotMember            = customErrors.Forbidden("You are not a member of this conversation")
	ErrNotAuthorized        = customErrors.Forbidden("You are not authorized to access this conversation")
	ErrCannotLeave          = customErrors.Forbidden("You cannot leave this conversation")
	ErrInvalidType          = customErrors.Validation("Invalid conversation_type")
	ErrContentRequired      = customErrors.Validation("content is required")

	ErrSalePostRequired = customErrors.Validation("salepost_id is required")
	ErrPrivateTitle     = customErrors.Validation("title should not be provided")
	ErrPrivateReceiver  = customErrors.Validation("receiver_id should not be provided")
	ErrSalePostNotFound = customErrors.NotFound("SalePost not found")
	ErrOwnSalePost      = customErrors.Validation("You cannot start a conversation on your own salepost")

	ErrSupportStaffOnly = customErrors.Forbidden("Only superusers can create support conversations")
	ErrSupportSalePost  = customErrors.Validation("salepost_id should not be provided for support conversations")
	ErrSupportTitle     = customErrors.Validation("title is required for support conversations")
	ErrSupportReceiver  = customErrors.Validation("receiver_id is required for support conversations")
	ErrSupportSelf      = customErrors.Validation("You cannot create a support conversation with yourself")

	ErrAnnouncementStaffOnly = customErrors.Forbidden("Only superusers can create announcement conversations")
	ErrAnnouncementSalePost  = customErrors.Validation("salepost_id should not be provided for announcement conversations")
	ErrAnnouncementTitle     = customErrors.Validation("title is required for announcement conversations")
	ErrAnnouncementReceiver  = customErrors.Validation("receiver_id should not be provided for announcement conversations")
)

type ConversationView struct {
	UniqueID    string                 `json:"unique_id"`
	Title       string                 `json:"title"`
	Type        model.ConversationType `json:"conversation_type"`
	CreatedAt   time.Time              `json:"created_at"`
	SalePost    *int                   `json:"salepost"`
	UnreadCount int                    `json:"unread_messages_count"`
}

type MessageView struct {
	ID             int64     `json:"id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type DetailView struct {
	UniqueID  string                 `json:"unique_id"`
	Title     string                 `json:"title"`
	Type      model.ConversationType `json:"conversation_type"`
	CreatedAt time.Time              `json:"created_at"`
	SalePost  *int                   `json:"salepost"`
	// Messages is null when nothing is left to show.
	Messages []MessageView `json:"messages"`
}

// SendPayload either targets an existing conversation through
// ConversationID or starts a new one of Type.
type SendPayload struct {
	Type           string          `json:"conversation_type"`
	Content        string          `json:"content"`
	ConversationID string          `json:"conversation_id"`
	SalePostID     json.RawMessage `json:"salepost_id"`
	Title          string          `json:"title"`
	ReceiverID     json.RawMessage `json:"receiver_id"`
}

type SendResult struct {
	ConversationID string `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

type Service struct {
	store *database.Store
	repo  Repository
	users authrepo.UserRepository
	posts salepost.Repository
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *database.Store, repo Repository, users authrepo.UserRepository, posts salepost.Repository, opts ...Option) *Service {
	s := &Service{store: store, repo: repo, users: users, posts: posts, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func internal(err error) error {
	return customErrors.InternalServerError(err, "Internal server error")
}

func provided(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != `""` && trimmed != "0"
}

// rawID reads an id sent as a JSON number or numeric string.
func rawID(raw json.RawMessage) (int64, bool) {
	var s string
	text := string(raw)
	if err := json.Unmarshal(raw, &s); err == nil {
		text = s
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	return id, err == nil
}

func (s *Service) List(ctx context.Context, caller *auth.Principal) ([]ConversationView, error) {
	threads, err := s.repo.Visible(ctx, caller.UserID(), caller.IsStaff())
	if err != nil {
		return nil, internal(err)
	}

	ids := make([]int64, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	unread, err := s.repo.UnreadCounts(ctx, caller.UserID(), ids)
	if err != nil {
		return nil, internal(err)
	}

	views := make([]ConversationView, len(threads))
	for i, t := range threads {
		views[i] = ConversationView{
			UniqueID:    t.UniqueID,
			Title:       t.Title,
			Type:        t.Type,
			CreatedAt:   t.CreatedAt.UTC(),
			SalePost:    t.PostID,
			UnreadCount: unread[t.ID],
		}
	}
	return views, nil
}

func (s *Service) thread(ctx context.Context, uniqueID string) (*Thread, error) {
	t, err := s.repo.GetByUniqueID(ctx, uniqueID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, internal(err)
	}
	return t, nil
}

// isMember reports whether the user holds a membership that has not been left.
func (s *Service) isMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	m, err := s.repo.Member(ctx, conversationID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, internal(err)
	}
	return !m.IsDeleted, nil
}

// Retrieve returns the conversation's messages and marks them read for the caller.
func (s *Service) Retrieve(ctx context.Context, caller *auth.Principal, uniqueID string) (*DetailView, error) {
	t, err := s.thread(ctx, uniqueID)
	if err != nil {
		return nil, err
	}

	open := t.Type == model.ConversationAnnouncement ||
		(t.Type == model.ConversationSupport && caller.IsStaff())
	if !open {
		member, err := s.isMember(ctx, t.ID, caller.UserID())
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotMember
		}
	}

	if err := s.repo.MarkRead(ctx, t.ID, caller.UserID(), s.now().UTC()); err != nil {
		return nil, internal(err)
	}
	entries, err := s.repo.Messages(ctx, t.ID, caller.UserID())
	if err != nil {
		return nil, internal(err)
	}

	detail := &DetailView{
		UniqueID:  t.UniqueID,
		Title:     t.Title,
		Type:      t.Type,
		CreatedAt: t.CreatedAt.UTC(),
		SalePost:  t.PostID,
	}
	for _, e := range entries {
		detail.Messages = append(detail.Messages, MessageView{
			ID:             e.ID,
			SenderUsername: e.SenderUsername,
			Content:        e.Content,
			CreatedAt:      e.CreatedAt.UTC(),
		})
	}
	return detail, nil
}

// Send appends a message to an existing conversation or starts a new one.
func (s *Service) Send(ctx context.Context, caller *auth.Principal, p SendPayload) (*SendResult, error) {
	p.Type = strings.TrimSpace(p.Type)
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	p.ConversationID = strings.TrimSpace(p.ConversationID)

	if p.ConversationID == "" && !model.ConversationType(p.Type).Valid() {
		return nil, ErrInvalidType
	}
	if p.Content == "" {
		return nil, ErrContentRequired
	}

	if p.ConversationID != "" {
		switch {
		case p.Type != "":
			return nil, customErrors.Validation("conversation_type should not be provided when conversation_id is given")
		case provided(p.SalePostID):
			return nil, customErrors.Validation("salepost_id should not be provided when conversation_id is given")
		case p.Title != "":
			return nil, customErrors.Validation("title should not be provided when conversation_id is given")
		case provided(p.ReceiverID):
			return nil, customErrors.Validation("receiver_id should not be provided when conversation_id is given")
		}
		return s.reply(ctx, caller, p)
	}

	switch model.ConversationType(p.Type) {
	case model.ConversationPrivate:
		return s.startPrivate(ctx, caller, p)
	case model.ConversationSupport:
		return s.startSupport(ctx, caller, p)
	default:
		return s.startAnnouncement(ctx, caller, p)
	}
}

func (s *Service) reply(ctx context.Context, caller *auth.Principal, p SendPayload) (*SendResult, error) {
	t, err := s.thread(ctx, p.ConversationID)
	if err != nil {
		return nil, err
	}
	member, err := s.isMember(ctx, t.ID, caller.UserID())
	if err != nil {
		return nil, err
	}
	if t.Type == model.ConversationPrivate && !member {
		return nil, ErrNotMember
	}
	if !member && !caller.IsStaff() {
		return nil, ErrNotAuthorized
	}

	msg, err := s.post(ctx, t.ID, caller.UserID(), p.Content)
	if err != nil {
		return nil, internal(err)
	}
	return &SendResult{ConversationID: t.UniqueID, MessageID: msg.ID}, nil
}

func (s *Service) post(ctx context.Context, conversationID, senderID int64, content string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) newUniqueID(ctx context.Context) (string, error) {
	for attempt := 1; ; attempt++ {
		id := verification.ConversationID(s.now())
		_, err := s.repo.GetByUniqueID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		if attempt == uniqueIDAttempts {
			return "", fmt.Errorf("no free conversation id after %d attempts", attempt)
		}
		logger.FromContext(ctx).Debug("conversation id collision, retrying", zap.String("unique_id", id))
	}
}

// start creates a conversation with its members and first message in one transaction.
func (s *Service) start(ctx context.Context, c *model.Conversation, senderID int64, content string, memberIDs ...int64) (*SendResult, error) {
	var msg *model.Message
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		uniqueID, err := s.newUniqueID(ctx)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		c.UniqueID, c.CreatedAt, c.UpdatedAt = uniqueID, now, now
		if err := s.repo.Create(ctx, c, memberIDs...); err != nil {
			return err
		}
		msg, err = s.post(ctx, c.ID, senderID, content)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	return &SendResult{ConversationID: c.UniqueID, MessageID: msg.ID}, nil
}

func (s *Service) startPrivate(ctx context.Context, caller *auth.Principal, p SendPayload) (*SendResult, error) {
	if !provided(p.SalePostID) {
		return nil, ErrSalePostRequired
	}
	if p.Title != "" {
		return nil, ErrPrivateTitle
	}
	if provided(p.ReceiverID) {
		return nil, ErrPrivateReceiver
	}

	postID, ok := rawID(p.SalePostID)
	if !ok {
		return nil, ErrSalePostNotFound
	}
	listing, err := s.posts.GetByPostID(ctx, int(postID))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrSalePostNotFound
	}
	if err != nil {
		return nil, internal(err)
	}
	if listing.SellerID == caller.UserID() {
		return nil, ErrOwnSalePost
	}

	existing, err := s.repo.FindPrivate(ctx, listing.ID, caller.UserID())
	switch {
	case err == nil:
		msg, err := s.post(ctx, existing.ID, caller.UserID(), p.Content)
		if err != nil {
			return nil, internal(err)
		}
		return &SendResult{ConversationID: existing.UniqueID, MessageID: msg.ID}, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, internal(err)
	}

	c := &model.Conversation{
		Type:       model.ConversationPrivate,
		Title:      fmt.Sprintf("%d%d - %s", caller.UserID(), listing.PostID, listing.Title),
		SalePostID: &listing.ID,
	}
	return s.start(ctx, c, caller.UserID(), p.Content, caller.UserID(), listing.SellerID)
}

func (s *Service) startSupport(ctx context.Context, caller *auth.Principal, p SendPayload) (*SendResult, error) {
	switch {
	case !caller.IsStaff():
		return nil, ErrSupportStaffOnly
	case provided(p.SalePostID):
		return nil, ErrSupportSalePost
	case p.Title == "":
		return nil, ErrSupportTitle
	case !provided(p.ReceiverID):
		return nil, ErrSupportReceiver
	}

	receiverID, ok := rawID(p.ReceiverID)
	if !ok {
		return nil, customErrors.UserNotFound
	}
	if receiverID == caller.UserID() {
		return nil, ErrSupportSelf
	}
	receiver, err := s.users.GetByID(ctx, receiverID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, internal(err)
	}

	c := &model.Conversation{Type: model.ConversationSupport, Title: p.Title}
	return s.start(ctx, c, caller.UserID(), p.Content, receiver.ID)
}

func (s *Service) startAnnouncement(ctx context.Context, caller *auth.Principal, p SendPayload) (*SendResult, error) {
	switch {
	case !caller.IsStaff():
		return nil, ErrAnnouncementStaffOnly
	case provided(p.SalePostID):
		return nil, ErrAnnouncementSalePost
	case p.Title == "":
		return nil, ErrAnnouncementTitle
	case provided(p.ReceiverID):
		return nil, ErrAnnouncementReceiver
	}

	c := &model.Conversation{Type: model.ConversationAnnouncement, Title: p.Title}
	return s.start(ctx, c, caller.UserID(), p.Content)
}

// Leave hides a private conversation and its history from the caller until
// someone posts to it again.
func (s *Service) Leave(ctx context.Context, caller *auth.Principal, uniqueID string) error {
	t, err := s.thread(ctx, uniqueID)
	if err != nil {
		return err
	}
	if t.Type != model.ConversationPrivate {
		return ErrCannotLeave
	}

	if _, err := s.repo.Member(ctx, t.ID, caller.UserID()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotMember
		}
		return internal(err)
	}
	if err := s.repo.Leave(ctx, t.ID, caller.UserID()); err != nil {
		return internal(err)
	}
	return nil
}
