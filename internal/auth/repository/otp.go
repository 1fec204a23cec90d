package repository

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTP) error
	ActiveForUser(ctx context.Context, userID int64, now time.Time) ([]*model.OTP, error)
	// Delete reports whether this call removed the row; a concurrent
	// delete of the same code leaves it false.
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

const otpsTable = "otps"

type otpRepository struct {
	store *database.Store
}

func NewOTPRepository(store *database.Store) OTPRepository {
	return &otpRepository{store: store}
}

// Create stores otp and prunes the user's expired codes in the same transaction.
func (r *otpRepository) Create(ctx context.Context, otp *model.OTP) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		b := r.store.Builder()
		prune := b.Delete(otpsTable).Where(entsql.And(
			entsql.EQ("user_id", otp.UserID),
			entsql.LT("expired_at", otp.CreatedAt),
		))
		if _, err := r.store.Exec(ctx, prune); err != nil {
			return err
		}

		id, err := r.store.Insert(ctx, b.Insert(otpsTable).
			Columns("user_id", "code_hash", "created_at", "expired_at").
			Values(otp.UserID, otp.CodeHash, otp.CreatedAt, otp.ExpiredAt))
		if err != nil {
			return err
		}
		otp.ID = id
		return nil
	})
}

func (r *otpRepository) ActiveForUser(ctx context.Context, userID int64, now time.Time) ([]*model.OTP, error) {
	b := r.store.Builder()
	q := b.Select("id", "user_id", "code_hash", "created_at", "expired_at").
		From(b.Table(otpsTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("id"))

	var otps []*model.OTP
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var o model.OTP
		if err := rows.Scan(&o.ID, &o.UserID, &o.CodeHash, &o.CreatedAt, &o.ExpiredAt); err != nil {
			return err
		}
		if o.Active(now) {
			otps = append(otps, &o)
		}
		return nil
	})
	return otps, err
}

func (r *otpRepository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.store.Affected(ctx, r.store.Builder().Delete(otpsTable).Where(entsql.EQ("id", id)))
	return n > 0, err
}

// DeleteExpired removes every code that expired before the given time.
func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.store.Affected(ctx, r.store.Builder().Delete(otpsTable).Where(entsql.LT("expired_at", before)))
}
