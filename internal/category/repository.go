package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

// DefaultUsageRangeUniqueID marks the usage range used when a listing names none.
const DefaultUsageRangeUniqueID = -1

var ErrInvalidUsageRange = errors.New("min usage range must not exceed max usage range")

type Repository interface {
	All(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id int64) (*model.Category, error)
	AttributesOf(ctx context.Context, categoryID int64) ([]*model.Attribute, error)
	Attribute(ctx context.Context, id int64) (*model.Attribute, error)
	Choices(ctx context.Context, attributeID int64) ([]model.AttributeChoice, error)
	BrandsOf(ctx context.Context, categoryID int64) ([]model.Brand, error)
	UsageRange(ctx context.Context, id int64) (*model.UsageRange, error)
	UsageRangeByUniqueID(ctx context.Context, uniqueID int) (*model.UsageRange, error)
	UsageRangesBetween(ctx context.Context, minUnique, maxUnique *int) ([]model.UsageRange, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	CreateAttribute(ctx context.Context, a *model.Attribute) error
	AttachAttribute(ctx context.Context, categoryID, attributeID int64) error
	CreateChoice(ctx context.Context, attributeID int64, value string) (int64, error)
	CreateUsageRange(ctx context.Context, u *model.UsageRange) error
	CreateBrand(ctx context.Context, name string, categoryIDs ...int64) (int64, error)
}

type repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) Repository {
	return &repository{store: store}
}

var categoryColumns = []string{"id", "name", "icon", "parent_id", "min_usage_range_id", "max_usage_range_id"}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func scanCategory(rows *entsql.Rows) (*model.Category, error) {
	var (
		c                      model.Category
		icon                   sql.NullString
		parent, minUse, maxUse sql.NullInt64
	)
	if err := rows.Scan(&c.ID, &c.Name, &icon, &parent, &minUse, &maxUse); err != nil {
		return nil, err
	}
	c.Icon = icon.String
	c.ParentID = nullInt64(parent)
	c.MinUsageID = nullInt64(minUse)
	c.MaxUsageID = nullInt64(maxUse)
	return &c, nil
}

func (r *repository) All(ctx context.Context) ([]*model.Category, error) {
	b := r.store.Builder()
	q := b.Select(categoryColumns...).From(b.Table("categories")).OrderBy("id")

	categories := []*model.Category{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		c, err := scanCategory(rows)
		if err != nil {
			return err
		}
		categories = append(categories, c)
		return nil
	})
	return categories, err
}

func (r *repository) Get(ctx context.Context, id int64) (*model.Category, error) {
	b := r.store.Builder()
	q := b.Select(categoryColumns...).From(b.Table("categories")).Where(entsql.EQ("id", id))

	var c *model.Category
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		var err error
		c, err = scanCategory(rows)
		return err
	})
	return c, err
}

func (r *repository) AttributesOf(ctx context.Context, categoryID int64) ([]*model.Attribute, error) {
	b := r.store.Builder()
	a := b.Table("attributes").As("a")
	ca := b.Table("category_attributes").As("ca")
	q := b.Select(a.C("id"), a.C("unique_name"), a.C("display_name"), a.C("data_type"), a.C("is_required")).
		From(a).
		Join(ca).On(a.C("id"), ca.C("attribute_id")).
		Where(entsql.EQ(ca.C("category_id"), categoryID)).
		OrderBy(a.C("id"))

	attrs := []*model.Attribute{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		attr, err := scanAttribute(rows)
		if err != nil {
			return err
		}
		attrs = append(attrs, attr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, attr := range attrs {
		if !attr.DataType.HasChoices() {
			continue
		}
		if attr.Choices, err = r.Choices(ctx, attr.ID); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func scanAttribute(rows *entsql.Rows) (*model.Attribute, error) {
	var (
		attr     model.Attribute
		dataType string
	)
	if err := rows.Scan(&attr.ID, &attr.UniqueName, &attr.DisplayName, &dataType, &attr.IsRequired); err != nil {
		return nil, err
	}
	attr.DataType = model.AttributeType(dataType)
	return &attr, nil
}

func (r *repository) Attribute(ctx context.Context, id int64) (*model.Attribute, error) {
	b := r.store.Builder()
	q := b.Select("id", "unique_name", "display_name", "data_type", "is_required").
		From(b.Table("attributes")).
		Where(entsql.EQ("id", id))

	var attr *model.Attribute
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		var err error
		attr, err = scanAttribute(rows)
		return err
	})
	return attr, err
}

func (r *repository) Choices(ctx context.Context, attributeID int64) ([]model.AttributeChoice, error) {
	b := r.store.Builder()
	q := b.Select("id", "value").
		From(b.Table("attribute_choices")).
		Where(entsql.EQ("attribute_id", attributeID)).
		OrderBy("id")

	choices := []model.AttributeChoice{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var ch model.AttributeChoice
		if err := rows.Scan(&ch.ID, &ch.Value); err != nil {
			return err
		}
		choices = append(choices, ch)
		return nil
	})
	return choices, err
}

func (r *repository) BrandsOf(ctx context.Context, categoryID int64) ([]model.Brand, error) {
	b := r.store.Builder()
	br := b.Table("brands").As("br")
	cb := b.Table("category_brands").As("cb")
	q := b.Select(br.C("id"), br.C("name")).
		From(br).
		Join(cb).On(br.C("id"), cb.C("brand_id")).
		Where(entsql.EQ(cb.C("category_id"), categoryID)).
		OrderBy(br.C("name"))

	brands := []model.Brand{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var brand model.Brand
		if err := rows.Scan(&brand.ID, &brand.Name); err != nil {
			return err
		}
		brands = append(brands, brand)
		return nil
	})
	return brands, err
}

func (r *repository) usageRangeBy(ctx context.Context, column string, value any) (*model.UsageRange, error) {
	b := r.store.Builder()
	q := b.Select("id", "unique_id", "name").From(b.Table("usage_ranges")).Where(entsql.EQ(column, value))

	var u model.UsageRange
	err := r.store.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		return rows.Scan(&u.ID, &u.UniqueID, &u.Name)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) UsageRange(ctx context.Context, id int64) (*model.UsageRange, error) {
	return r.usageRangeBy(ctx, "id", id)
}

func (r *repository) UsageRangeByUniqueID(ctx context.Context, uniqueID int) (*model.UsageRange, error) {
	return r.usageRangeBy(ctx, "unique_id", uniqueID)
}

// UsageRangesBetween lists ranges whose unique id lies within the optional bounds.
func (r *repository) UsageRangesBetween(ctx context.Context, minUnique, maxUnique *int) ([]model.UsageRange, error) {
	b := r.store.Builder()
	q := b.Select("id", "unique_id", "name").From(b.Table("usage_ranges")).OrderBy("unique_id")
	if minUnique != nil {
		q.Where(entsql.GTE("unique_id", *minUnique))
	}
	if maxUnique != nil {
		q.Where(entsql.LTE("unique_id", *maxUnique))
	}

	ranges := []model.UsageRange{}
	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var u model.UsageRange
		if err := rows.Scan(&u.ID, &u.UniqueID, &u.Name); err != nil {
			return err
		}
		ranges = append(ranges, u)
		return nil
	})
	return ranges, err
}

func optional(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// CreateCategory inserts c after checking its usage range pair is ordered.
func (r *repository) CreateCategory(ctx context.Context, c *model.Category) error {
	if c.MinUsageID != nil && c.MaxUsageID != nil {
		minRange, err := r.UsageRange(ctx, *c.MinUsageID)
		if err != nil {
			return fmt.Errorf("loading min usage range: %w", err)
		}
		maxRange, err := r.UsageRange(ctx, *c.MaxUsageID)
		if err != nil {
			return fmt.Errorf("loading max usage range: %w", err)
		}
		if minRange.UniqueID > maxRange.UniqueID {
			return ErrInvalidUsageRange
		}
	}

	var icon any
	if c.Icon != "" {
		icon = c.Icon
	}
	id, err := r.store.Insert(ctx, r.store.Builder().Insert("categories").
		Columns("name", "icon", "parent_id", "min_usage_range_id", "max_usage_range_id").
		Values(c.Name, icon, optional(c.ParentID), optional(c.MinUsageID), optional(c.MaxUsageID)))
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *repository) CreateAttribute(ctx context.Context, a *model.Attribute) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		id, err := r.store.Insert(ctx, r.store.Builder().Insert("attributes").
			Columns("unique_name", "display_name", "data_type", "is_required").
			Values(a.UniqueName, a.DisplayName, string(a.DataType), a.IsRequired))
		if err != nil {
			return err
		}
		a.ID = id

		for i := range a.Choices {
			if !a.DataType.HasChoices() {
				return fmt.Errorf("attribute %q of type %s cannot have choices", a.UniqueName, a.DataType)
			}
			if a.Choices[i].ID, err = r.CreateChoice(ctx, id, a.Choices[i].Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) AttachAttribute(ctx context.Context, categoryID, attributeID int64) error {
	_, err := r.store.Exec(ctx, r.store.Builder().Insert("category_attributes").
		Columns("category_id", "attribute_id").
		Values(categoryID, attributeID))
	return err
}

func (r *repository) CreateChoice(ctx context.Context, attributeID int64, value string) (int64, error) {
	return r.store.Insert(ctx, r.store.Builder().Insert("attribute_choices").
		Columns("attribute_id", "value").
		Values(attributeID, value))
}

func (r *repository) CreateUsageRange(ctx context.Context, u *model.UsageRange) error {
	id, err := r.store.Insert(ctx, r.store.Builder().Insert("usage_ranges").
		Columns("unique_id", "name").
		Values(u.UniqueID, u.Name))
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *repository) CreateBrand(ctx context.Context, name string, categoryIDs ...int64) (int64, error) {
	var id int64
	err := r.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.store.Insert(ctx, r.store.Builder().Insert("brands").Columns("name").Values(name))
		if err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			if _, err := r.store.Exec(ctx, r.store.Builder().Insert("category_brands").
				Columns("category_id", "brand_id").
				Values(categoryID, id)); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}
