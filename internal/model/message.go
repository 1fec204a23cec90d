package model

import "time"

type ConversationType string

const (
	ConversationPrivate      ConversationType = "private"
	ConversationSupport      ConversationType = "support"
	ConversationAnnouncement ConversationType = "announcement"
)

func (t ConversationType) Valid() bool {
	switch t {
	case ConversationPrivate, ConversationSupport, ConversationAnnouncement:
		return true
	}
	return false
}

type Conversation struct {
	ID         int64
	UniqueID   string
	Type       ConversationType
	Title      string
	SalePostID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ConversationMember struct {
	ID             int64
	ConversationID int64
	UserID         int64
	IsDeleted      bool
	JoinedAt       time.Time
}

type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Content        string
	CreatedAt      time.Time
}
