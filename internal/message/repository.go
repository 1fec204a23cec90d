package message

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

const (
	conversationsTable = "conversations"
	membersTable       = "conversation_members"
	messagesTable      = "messages"
	receiptsTable      = "message_rel_users"
)

// Thread is a conversation with the public post id of the listing it
// belongs to, when any.
type Thread struct {
	model.Conversation
	PostID *int
}

// Entry is a message with its sender's username.
type Entry struct {
	model.Message
	SenderUsername string
}

type Repository interface {
	// Visible returns the conversations the user may read, most recently
	// active first. Support threads are included only when withSupport is set.
	Visible(ctx context.Context, userID int64, withSupport bool) ([]*Thread, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*Thread, error)
	// FindPrivate returns the private conversation about a listing that the
	// user belongs to, deleted membership included.
	FindPrivate(ctx context.Context, salePostID, userID int64) (*model.Conversation, error)
	Create(ctx context.Context, c *model.Conversation, memberIDs ...int64) error
	Member(ctx context.Context, conversationID, userID int64) (*model.ConversationMember, error)
	// AddMessage stores m, restores every member and bumps the conversation.
	AddMessage(ctx context.Context, m *model.Message) error
	// Messages lists a conversation's messages the user has not deleted, oldest first.
	Messages(ctx context.Context, conversationID, userID int64) ([]*Entry, error)
	UnreadCounts(ctx context.Context, userID int64, conversationIDs []int64) (map[int64]int, error)
	MarkRead(ctx context.Context, conversationID, userID int64, now time.Time) error
	// Leave marks the membership and the user's copy of every message deleted.
	Leave(ctx context.Context, conversationID, userID int64) error
}

type repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) Repository {
	return &repository{store: store}
}

func (r *repository) threadSelector() (*entsql.Selector, *entsql.SelectTable) {
	b := r.store.Builder()
	c := b.Table(conversationsTable).As("c")
	sp := b.Table("sale_posts").As("sp")
	sel := b.Select(
		c.C("id"), c.C("unique_id"), c.C("type"), c.C("title"), c.C("sale_post_id"),
		c.C("created_at"), c.C("updated_at"), sp.C("post_id"),
	).From(c).
		LeftJoin(sp).On(c.C("sale_post_id"), sp.C("id"))
	return sel, c
}

func scanThread(rows *entsql.Rows) (*Thread, error) {
	var (
		t          Thread
		kind       string
		salePostID sql.NullInt64
		postID     sql.NullInt64
	)
	if err := rows.Scan(&t.ID, &t.UniqueID, &kind, &t.Title, &salePostID, &t.CreatedAt, &t.UpdatedAt, &postID); err != nil {
		return nil, err
	}
	t.Type = model.ConversationType(kind)
	if salePostID.Valid {
		id := salePostID.Int64
		t.SalePostID = &id
	}
	if postID.Valid {
		id := int(postID.Int64)
		t.PostID = &id
	}
	return &t, nil
}

func (r *repository) queryThreads(ctx context.Context, sel *entsql.Selector) ([]*Thread, error) {
	threads := []*Thread{}
	err := r.store.Query(ctx, sel, func(rows *entsql.Rows) error {
		t, err := scanThread(rows)
		if err != nil {
			return err
		}
		threads = append(threads, t)
		return nil
	})
	return threads, err
}

func (r *repository) memberOf(ctx context.Context, userID int64) ([]int64, error) {
	b := r.store.Builder()
	q := b.Select("conversation_id").From(b.Table(membersTable)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("is_deleted", false)))

	var ids []int64
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

func (r *repository) Visible(ctx context.Context, userID int64, withSupport bool) ([]*Thread, error) {
	ids, err := r.memberOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	sel, c := r.threadSelector()
	visible := []*entsql.Predicate{entsql.EQ(c.C("type"), string(model.ConversationAnnouncement))}
	if withSupport {
		visible = append(visible, entsql.EQ(c.C("type"), string(model.ConversationSupport)))
	}
	if len(ids) > 0 {
		visible = append(visible, entsql.In(c.C("id"), database.Args(ids)...))
	}
	sel.Where(entsql.Or(visible...)).
		OrderBy(entsql.Desc(c.C("updated_at")), entsql.Desc(c.C("id")))
	return r.queryThreads(ctx, sel)
}

func (r *repository) GetByUniqueID(ctx context.Context, uniqueID string) (*Thread, error) {
	sel, c := r.threadSelector()
	sel.Where(entsql.EQ(c.C("unique_id"), uniqueID))

	var thread *Thread
	err := r.store.QueryOne(ctx, sel, func(rows *entsql.Rows) error {
		var err error
		thread, err = scanThread(rows)
		return err
	})
	return thread, err
}

func (r *repository) FindPrivate(ctx context.Context, salePostID, userID int64) (*model.Conversation, error) {
	sel, c := r.threadSelector()
	cm := r.store.Builder().Table(membersTable).As("cm")
	sel.Join(cm).On(cm.C("conversation_id"), c.C("id")).
		Where(entsql.And(
			entsql.EQ(c.C("type"), string(model.ConversationPrivate)),
			entsql.EQ(c.C("sale_post_id"), salePostID),
			entsql.EQ(cm.C("user_id"), userID),
		)).
		OrderBy(c.C("id")).
		Limit(1)

	var thread *Thread
	err := r.store.QueryOne(ctx, sel, func(rows *entsql.Rows) error {
		var err error
		thread, err = scanThread(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &thread.Conversation, nil
}

func optional(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *repository) Create(ctx context.Context, c *model.Conversation, memberIDs ...int64) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		b := r.store.Builder()
		id, err := r.store.Insert(ctx, b.Insert(conversationsTable).
			Columns("unique_id", "type", "title", "sale_post_id", "created_at", "updated_at").
			Values(c.UniqueID, string(c.Type), c.Title, optional(c.SalePostID), c.CreatedAt, c.UpdatedAt))
		if err != nil {
			return err
		}
		c.ID = id

		if len(memberIDs) == 0 {
			return nil
		}
		ins := b.Insert(membersTable).Columns("conversation_id", "user_id", "is_deleted", "joined_at")
		for _, userID := range memberIDs {
			ins.Values(id, userID, false, c.CreatedAt)
		}
		_, err = r.store.Exec(ctx, ins)
		return err
	})
}

func (r *repository) Member(ctx context.Context, conversationID, userID int64) (*model.ConversationMember, error) {
	b := r.store.Builder()
	q := b.Select("id", "conversation_id", "user_id", "is_deleted", "joined_at").
		From(b.Table(membersTable)).
		Where(entsql.And(entsql.EQ("conversation_id", conversationID), entsql.EQ("user_id", userID)))

	var m model.ConversationMember
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		return rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.IsDeleted, &m.JoinedAt)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) AddMessage(ctx context.Context, m *model.Message) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		b := r.store.Builder()
		id, err := r.store.Insert(ctx, b.Insert(messagesTable).
			Columns("conversation_id", "sender_id", "content", "created_at").
			Values(m.ConversationID, m.SenderID, m.Content, m.CreatedAt))
		if err != nil {
			return err
		}
		m.ID = id

		if _, err := r.store.Exec(ctx, b.Update(membersTable).
			Set("is_deleted", false).
			Where(entsql.And(entsql.EQ("conversation_id", m.ConversationID), entsql.EQ("is_deleted", true)))); err != nil {
			return err
		}
		_, err = r.store.Exec(ctx, b.Update(conversationsTable).
			Set("updated_at", m.CreatedAt).
			Where(entsql.EQ("id", m.ConversationID)))
		return err
	})
}

// receiptJoin left-joins the user's receipt rows onto the messages table.
func (r *repository) receiptJoin(userID int64) (*entsql.Selector, *entsql.SelectTable, *entsql.SelectTable) {
	b := r.store.Builder()
	m := b.Table(messagesTable).As("m")
	mr := b.Table(receiptsTable).As("mr")
	sel := b.Select().From(m).
		LeftJoin(mr).OnP(entsql.And(
		entsql.ColumnsEQ(mr.C("message_id"), m.C("id")),
		entsql.EQ(mr.C("user_id"), userID),
	))
	return sel, m, mr
}

func (r *repository) Messages(ctx context.Context, conversationID, userID int64) ([]*Entry, error) {
	sel, m, mr := r.receiptJoin(userID)
	u := r.store.Builder().Table("users").As("u")
	sel.Select(m.C("id"), m.C("conversation_id"), m.C("sender_id"), m.C("content"), m.C("created_at"), u.C("username")).
		Join(u).On(m.C("sender_id"), u.C("id")).
		Where(entsql.And(
			entsql.EQ(m.C("conversation_id"), conversationID),
			entsql.Or(entsql.IsNull(mr.C("id")), entsql.EQ(mr.C("is_deleted"), false)),
		)).
		OrderBy(m.C("created_at"), m.C("id"))

	entries := []*Entry{}
	err := r.store.Query(ctx, sel, func(rows *entsql.Rows) error {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.SenderID, &e.Content, &e.CreatedAt, &e.SenderUsername); err != nil {
			return err
		}
		entries = append(entries, &e)
		return nil
	})
	return entries, err
}

func (r *repository) UnreadCounts(ctx context.Context, userID int64, conversationIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	sel, m, mr := r.receiptJoin(userID)
	sel.Select(m.C("conversation_id"), entsql.Count("*")).
		Where(entsql.And(
			entsql.In(m.C("conversation_id"), database.Args(conversationIDs)...),
			entsql.NEQ(m.C("sender_id"), userID),
			entsql.Or(
				entsql.IsNull(mr.C("id")),
				entsql.And(entsql.EQ(mr.C("is_read"), false), entsql.EQ(mr.C("is_deleted"), false)),
			),
		)).
		GroupBy(m.C("conversation_id"))

	err := r.store.Query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			id int64
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return err
		}
		counts[id] = n
		return nil
	})
	return counts, err
}

// receipts creates the user's missing receipt rows for every message in the
// conversation and returns all of its message ids.
func (r *repository) receipts(ctx context.Context, conversationID, userID int64, read, deleted bool, now time.Time) ([]int64, error) {
	sel, m, mr := r.receiptJoin(userID)
	sel.Select(m.C("id"), mr.C("id")).Where(entsql.EQ(m.C("conversation_id"), conversationID))

	var ids, missing []int64
	err := r.store.Query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			id        int64
			receiptID sql.NullInt64
		)
		if err := rows.Scan(&id, &receiptID); err != nil {
			return err
		}
		ids = append(ids, id)
		if !receiptID.Valid {
			missing = append(missing, id)
		}
		return nil
	})
	if err != nil || len(missing) == 0 {
		return ids, err
	}

	var readAt any
	if read {
		readAt = now
	}
	ins := r.store.Builder().Insert(receiptsTable).Columns("message_id", "user_id", "is_read", "is_deleted", "read_at")
	for _, id := range missing {
		ins.Values(id, userID, read, deleted, readAt)
	}
	_, err = r.store.Exec(ctx, ins)
	return ids, err
}

func (r *repository) MarkRead(ctx context.Context, conversationID, userID int64, now time.Time) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		ids, err := r.receipts(ctx, conversationID, userID, true, false, now)
		if err != nil || len(ids) == 0 {
			return err
		}
		_, err = r.store.Exec(ctx, r.store.Builder().Update(receiptsTable).
			Set("is_read", true).
			Set("read_at", now).
			Where(entsql.And(
				entsql.EQ("user_id", userID),
				entsql.In("message_id", database.Args(ids)...),
				entsql.EQ("is_read", false),
			)))
		return err
	})
}

func (r *repository) Leave(ctx context.Context, conversationID, userID int64) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		b := r.store.Builder()
		if _, err := r.store.Exec(ctx, b.Update(membersTable).
			Set("is_deleted", true).
			Where(entsql.And(entsql.EQ("conversation_id", conversationID), entsql.EQ("user_id", userID)))); err != nil {
			return err
		}

		ids, err := r.receipts(ctx, conversationID, userID, false, true, time.Time{})
		if err != nil || len(ids) == 0 {
			return err
		}
		_, err = r.store.Exec(ctx, b.Update(receiptsTable).
			Set("is_deleted", true).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.In("message_id", database.Args(ids)...))))
		return err
	})
}
