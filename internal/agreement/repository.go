package agreement

import (
	"context"
	"database/sql"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

const (
	agreementsTable = "agreements"
	acceptedTable   = "accepted_agreements"
)

var agreementColumns = []string{"id", "agreement", "agreement_type", "released_date", "version", "is_active", "parent_id"}

type Repository interface {
	Create(ctx context.Context, a *model.Agreement) error
	Active(ctx context.Context, kind model.AgreementType) ([]*model.Agreement, error)
	AcceptedIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	Accept(ctx context.Context, userID int64, ids []int64, ip string, at time.Time) ([]int64, error)
}

type repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) Repository {
	return &repository{store: store}
}

func scanAgreement(rows *entsql.Rows) (*model.Agreement, error) {
	var (
		a        model.Agreement
		kind     string
		parentID sql.NullInt64
	)
	if err := rows.Scan(&a.ID, &a.Agreement, &kind, &a.ReleasedDate, &a.Version, &a.IsActive, &parentID); err != nil {
		return nil, err
	}
	a.Type = model.AgreementType(kind)
	if parentID.Valid {
		id := parentID.Int64
		a.ParentID = &id
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, a *model.Agreement) error {
	if a.ReleasedDate.IsZero() {
		a.ReleasedDate = time.Now().UTC()
	}
	var parent any
	if a.ParentID != nil {
		parent = *a.ParentID
	}

	id, err := r.store.Insert(ctx, r.store.Builder().Insert(agreementsTable).
		Columns("agreement", "agreement_type", "released_date", "version", "is_active", "parent_id").
		Values(a.Agreement, string(a.Type), a.ReleasedDate, a.Version, a.IsActive, parent))
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// Active lists active agreements, optionally narrowed to one type.
func (r *repository) Active(ctx context.Context, kind model.AgreementType) ([]*model.Agreement, error) {
	b := r.store.Builder()
	preds := []*entsql.Predicate{entsql.EQ("is_active", true)}
	if kind != "" {
		preds = append(preds, entsql.EQ("agreement_type", string(kind)))
	}

	q := b.Select(agreementColumns...).
		From(b.Table(agreementsTable)).
		Where(entsql.And(preds...)).
		OrderBy("id")

	agreements := []*model.Agreement{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		a, err := scanAgreement(rows)
		if err != nil {
			return err
		}
		agreements = append(agreements, a)
		return nil
	})
	return agreements, err
}

func (r *repository) AcceptedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	b := r.store.Builder()
	q := b.Select("agreement_id").From(b.Table(acceptedTable)).Where(entsql.EQ("user_id", userID))

	ids := map[int64]bool{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids[id] = true
		return nil
	})
	return ids, err
}

// Accept records acceptance of every active agreement in ids the user has
// not accepted yet, returning the newly accepted ids in ascending order.
func (r *repository) Accept(ctx context.Context, userID int64, ids []int64, ip string, at time.Time) ([]int64, error) {
	accepted := []int64{}
	err := r.store.InTx(ctx, func(ctx context.Context) error {
		already, err := r.AcceptedIDs(ctx, userID)
		if err != nil {
			return err
		}

		b := r.store.Builder()
		q := b.Select("id").
			From(b.Table(agreementsTable)).
			Where(entsql.And(
				entsql.In("id", database.Args(ids)...),
				entsql.EQ("is_active", true),
			))

		var candidates []int64
		err = r.store.Query(ctx, q, func(rows *entsql.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			if !already[id] {
				candidates = append(candidates, id)
			}
			return nil
		})
		if err != nil {
			return err
		}

		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
		for _, id := range candidates {
			_, err := r.store.Exec(ctx, r.store.Builder().Insert(acceptedTable).
				Columns("agreement_id", "user_id", "ip_address", "accepted_at").
				Values(id, userID, ip, at))
			if err != nil {
				return err
			}
			accepted = append(accepted, id)
		}
		return nil
	})
	return accepted, err
}
