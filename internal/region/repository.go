package region

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

const regionsTable = "regions"

var regionColumns = []string{"id", "name", "parent_id", "latitude", "longitude"}

type Repository interface {
	All(ctx context.Context) ([]*model.Region, error)
	Get(ctx context.Context, id int64) (*model.Region, error)
	// Exists reports whether another region already uses name under parent.
	Exists(ctx context.Context, name string, parentID *int64, excludeID int64) (bool, error)
	Create(ctx context.Context, r *model.Region) error
	Update(ctx context.Context, r *model.Region) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) Repository {
	return &repository{store: store}
}

func scanRegion(rows *entsql.Rows) (*model.Region, error) {
	var (
		r        model.Region
		parentID sql.NullInt64
		lat, lng sql.NullFloat64
	)
	if err := rows.Scan(&r.ID, &r.Name, &parentID, &lat, &lng); err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.Int64
		r.ParentID = &id
	}
	if lat.Valid {
		v := lat.Float64
		r.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		r.Longitude = &v
	}
	return &r, nil
}

func (r *repository) All(ctx context.Context) ([]*model.Region, error) {
	b := r.store.Builder()
	q := b.Select(regionColumns...).From(b.Table(regionsTable)).OrderBy("id")

	regions := []*model.Region{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		region, err := scanRegion(rows)
		if err != nil {
			return err
		}
		regions = append(regions, region)
		return nil
	})
	return regions, err
}

func (r *repository) Get(ctx context.Context, id int64) (*model.Region, error) {
	b := r.store.Builder()
	q := b.Select(regionColumns...).From(b.Table(regionsTable)).Where(entsql.EQ("id", id))

	var region *model.Region
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		var err error
		region, err = scanRegion(rows)
		return err
	})
	return region, err
}

// Exists checks name uniqueness per parent. Root regions are compared with
// IS NULL since the unique index does not cover NULL parents.
func (r *repository) Exists(ctx context.Context, name string, parentID *int64, excludeID int64) (bool, error) {
	b := r.store.Builder()
	q := b.Select(entsql.Count("*")).From(b.Table(regionsTable)).
		Where(entsql.EQ("name", name)).
		Where(entsql.NEQ("id", excludeID))
	if parentID == nil {
		q.Where(entsql.IsNull("parent_id"))
	} else {
		q.Where(entsql.EQ("parent_id", *parentID))
	}
	return r.store.Exists(ctx, q)
}

func optionalFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (r *repository) Create(ctx context.Context, region *model.Region) error {
	id, err := r.store.Insert(ctx, r.store.Builder().Insert(regionsTable).
		Columns("name", "parent_id", "latitude", "longitude").
		Values(region.Name, optionalID(region.ParentID), optionalFloat(region.Latitude), optionalFloat(region.Longitude)))
	if err != nil {
		return err
	}
	region.ID = id
	return nil
}

func (r *repository) Update(ctx context.Context, region *model.Region) error {
	q := r.store.Builder().Update(regionsTable).
		Set("name", region.Name).
		Where(entsql.EQ("id", region.ID))
	if region.ParentID == nil {
		q.SetNull("parent_id")
	} else {
		q.Set("parent_id", *region.ParentID)
	}
	_, err := r.store.Exec(ctx, q)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.store.Affected(ctx, r.store.Builder().Delete(regionsTable).Where(entsql.EQ("id", id)))
	return n > 0, err
}
