package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateProfile(ctx context.Context, u *model.User) error
	SetPending(ctx context.Context, userID int64, pending model.PendingVerification) error
	PromotePending(ctx context.Context, userID int64, pending model.PendingVerification) error
	UpdateLoginTime(ctx context.Context, userID int64, at time.Time) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	PhoneTaken(ctx context.Context, phone string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)

	GroupsAndPermissions(ctx context.Context, userID int64) (groups []string, perms []string, err error)
	AddToGroup(ctx context.Context, userID int64, group string) error
	EnsureGroup(ctx context.Context, name string, perms ...string) (int64, error)
}

const usersTable = "users"

var userColumns = []string{
	"id", "username", "email", "phone",
	"pending_kind", "pending_value", "pending_otp_id",
	"first_name", "last_name", "about_me", "profile_picture_url",
	"baby_gender", "baby_age", "is_active", "is_staff",
	"last_login", "date_joined",
}

type userRepository struct {
	store *database.Store
}

func NewUserRepository(store *database.Store) UserRepository {
	return &userRepository{store: store}
}

func scanUser(rows *entsql.Rows) (*model.User, error) {
	var (
		u                         model.User
		email, phone, aboutMe     sql.NullString
		pendingKind, pendingValue sql.NullString
		pendingOTP                sql.NullInt64
		gender                    string
		lastLogin                 sql.NullTime
	)

	err := rows.Scan(
		&u.ID, &u.Username, &email, &phone,
		&pendingKind, &pendingValue, &pendingOTP,
		&u.FirstName, &u.LastName, &aboutMe, &u.ProfilePictureURL,
		&gender, &u.BabyAge, &u.IsActive, &u.IsStaff,
		&lastLogin, &u.DateJoined,
	)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.Phone = phone.String
	u.AboutMe = aboutMe.String
	u.BabyGender = model.BabyGender(gender)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}

	u.Contact = model.Verified{}
	if pendingKind.Valid && pendingValue.Valid {
		u.Contact = model.PendingVerification{
			Kind:      model.ContactKind(pendingKind.String),
			Candidate: pendingValue.String,
			OTPID:     pendingOTP.Int64,
		}
	}
	return &u, nil
}

func (r *userRepository) getBy(ctx context.Context, column string, value any) (*model.User, error) {
	b := r.store.Builder()
	q := b.Select(userColumns...).
		From(b.Table(usersTable)).
		Where(entsql.EQ(column, value)).
		Limit(1)

	var user *model.User
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		var err error
		user, err = scanUser(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.getBy(ctx, "phone", phone)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	if u.BabyGender == "" {
		u.BabyGender = model.BabyGenderUnisex
	}

	q := r.store.Builder().Insert(usersTable).
		Columns(
			"username", "email", "phone", "first_name", "last_name",
			"about_me", "profile_picture_url", "baby_gender", "baby_age",
			"is_active", "is_staff", "date_joined",
		).
		Values(
			u.Username, nullable(u.Email), nullable(u.Phone), u.FirstName, u.LastName,
			nullable(u.AboutMe), u.ProfilePictureURL, string(u.BabyGender), u.BabyAge,
			u.IsActive, u.IsStaff, u.DateJoined,
		)

	id, err := r.store.Insert(ctx, q)
	if err != nil {
		return err
	}
	u.ID = id
	u.Contact = model.Verified{}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	q := r.store.Builder().Update(usersTable).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("about_me", nullable(u.AboutMe)).
		Set("profile_picture_url", u.ProfilePictureURL).
		Set("baby_gender", string(u.BabyGender)).
		Set("baby_age", u.BabyAge).
		Where(entsql.EQ("id", u.ID))

	_, err := r.store.Exec(ctx, q)
	return err
}

func (r *userRepository) SetPending(ctx context.Context, userID int64, pending model.PendingVerification) error {
	q := r.store.Builder().Update(usersTable).
		Set("pending_kind", string(pending.Kind)).
		Set("pending_value", pending.Candidate).
		Set("pending_otp_id", pending.OTPID).
		Where(entsql.EQ("id", userID))

	_, err := r.store.Exec(ctx, q)
	return err
}

// PromotePending moves the staged candidate into the authoritative column and clears the staging.
func (r *userRepository) PromotePending(ctx context.Context, userID int64, pending model.PendingVerification) error {
	column := "email"
	if pending.Kind == model.ContactPhone {
		column = "phone"
	}

	q := r.store.Builder().Update(usersTable).
		Set(column, pending.Candidate).
		SetNull("pending_kind").
		SetNull("pending_value").
		SetNull("pending_otp_id").
		Where(entsql.EQ("id", userID))

	_, err := r.store.Exec(ctx, q)
	return err
}

func (r *userRepository) UpdateLoginTime(ctx context.Context, userID int64, at time.Time) error {
	q := r.store.Builder().Update(usersTable).
		Set("last_login", at).
		Where(entsql.EQ("id", userID))

	_, err := r.store.Exec(ctx, q)
	return err
}

func (r *userRepository) taken(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	b := r.store.Builder()
	q := b.Select(entsql.Count("*")).
		From(b.Table(usersTable)).
		Where(entsql.And(entsql.EQ(column, value), entsql.NEQ("id", excludeID)))
	return r.store.Exists(ctx, q)
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.taken(ctx, "email", email, excludeID)
}

func (r *userRepository) PhoneTaken(ctx context.Context, phone string, excludeID int64) (bool, error) {
	return r.taken(ctx, "phone", phone, excludeID)
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.taken(ctx, "username", username, 0)
}

func (r *userRepository) GroupsAndPermissions(ctx context.Context, userID int64) ([]string, []string, error) {
	b := r.store.Builder()
	ug := b.Table("user_groups").As("ug")
	g := b.Table("auth_groups").As("g")
	q := b.Select(g.C("id"), g.C("name")).
		From(ug).
		Join(g).On(ug.C("group_id"), g.C("id")).
		Where(entsql.EQ(ug.C("user_id"), userID)).
		OrderBy(g.C("name"))

	var (
		groups   []string
		groupIDs []int64
	)
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		groupIDs = append(groupIDs, id)
		groups = append(groups, name)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading groups of user %d: %w", userID, err)
	}
	if len(groupIDs) == 0 {
		return []string{}, []string{}, nil
	}

	gp := b.Table("group_permissions")
	pq := b.Select(gp.C("codename")).
		Distinct().
		From(gp).
		Where(entsql.In(gp.C("group_id"), database.Args(groupIDs)...)).
		OrderBy(gp.C("codename"))

	perms := []string{}
	err = r.store.Query(ctx, pq, func(rows *entsql.Rows) error {
		var code string
		if err := rows.Scan(&code); err != nil {
			return err
		}
		perms = append(perms, code)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading permissions of user %d: %w", userID, err)
	}
	return groups, perms, nil
}

func (r *userRepository) groupID(ctx context.Context, name string) (int64, error) {
	b := r.store.Builder()
	q := b.Select("id").From(b.Table("auth_groups")).Where(entsql.EQ("name", name))

	var id int64
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		return rows.Scan(&id)
	})
	return id, err
}

// EnsureGroup creates the group when missing and grants it any of perms it lacks.
func (r *userRepository) EnsureGroup(ctx context.Context, name string, perms ...string) (int64, error) {
	var id int64
	err := r.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.groupID(ctx, name)
		if errors.Is(err, database.ErrNotFound) {
			id, err = r.store.Insert(ctx, r.store.Builder().Insert("auth_groups").Columns("name").Values(name))
		}
		if err != nil {
			return err
		}

		for _, perm := range perms {
			b := r.store.Builder()
			exists, err := r.store.Exists(ctx, b.Select(entsql.Count("*")).
				From(b.Table("group_permissions")).
				Where(entsql.And(entsql.EQ("group_id", id), entsql.EQ("codename", perm))))
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if _, err := r.store.Exec(ctx, b.Insert("group_permissions").
				Columns("group_id", "codename").
				Values(id, perm)); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (r *userRepository) AddToGroup(ctx context.Context, userID int64, group string) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		groupID, err := r.EnsureGroup(ctx, group)
		if err != nil {
			return err
		}

		b := r.store.Builder()
		member, err := r.store.Exists(ctx, b.Select(entsql.Count("*")).
			From(b.Table("user_groups")).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("group_id", groupID))))
		if err != nil || member {
			return err
		}

		_, err = r.store.Exec(ctx, b.Insert("user_groups").
			Columns("user_id", "group_id").
			Values(userID, groupID))
		return err
	})
}
