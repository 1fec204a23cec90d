package salepost

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/salepost/search"
)

const (
	salePostsTable  = "sale_posts"
	postAttrsTable  = "sale_post_attributes"
	genderAttribute = "gender"
)

// Listing is a sale post joined with the names and coordinates it is shown with.
type Listing struct {
	model.SalePost
	SellerUsername  string
	CategoryName    string
	RegionName      string
	RegionLatitude  *float64
	RegionLongitude *float64
}

// Coords returns the post's own coordinates, falling back to its region's.
func (l *Listing) Coords() *search.Point {
	if l.Latitude != nil && l.Longitude != nil {
		return &search.Point{Lat: *l.Latitude, Lng: *l.Longitude}
	}
	if l.RegionLatitude != nil && l.RegionLongitude != nil {
		return &search.Point{Lat: *l.RegionLatitude, Lng: *l.RegionLongitude}
	}
	return nil
}

// AttributeValue is a stored attribute rendered with its definition.
type AttributeValue struct {
	SalePostID  int64
	AttributeID int64
	UniqueName  string
	DataType    model.AttributeType
	ValueText   *string
	ValueNumber *float64
	ChoiceID    *int64
	ChoiceValue *string
}

// HomeFilter narrows the home feed. Usage bounds compare usage range unique ids.
type HomeFilter struct {
	Gender   string
	MinUsage *int
	MaxUsage *int
}

type Repository interface {
	Create(ctx context.Context, post *model.SalePost, attrs []*model.SalePostAttribute) error
	GetByPostID(ctx context.Context, postID int) (*Listing, error)
	Search(ctx context.Context, f search.Filter) ([]*Listing, error)
	Latest(ctx context.Context, f HomeFilter, limit int) ([]*Listing, error)
	InCategories(ctx context.Context, categoryIDs []int64, excludeID int64, limit int) ([]*Listing, error)
	Attributes(ctx context.Context, salePostIDs ...int64) (map[int64][]AttributeValue, error)
	Update(ctx context.Context, post *model.SalePost, attrs []*model.SalePostAttribute) error
	IncrementViews(ctx context.Context, postID int) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	store *database.Store
}

func NewRepository(store *database.Store) Repository {
	return &repository{store: store}
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func (r *repository) Create(ctx context.Context, post *model.SalePost, attrs []*model.SalePostAttribute) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		id, err := r.store.Insert(ctx, r.store.Builder().Insert(salePostsTable).
			Columns("post_id", "status", "seller_id", "category_id", "region_id", "title", "description",
				"price", "latitude", "longitude", "min_usage_range_id", "max_usage_range_id",
				"viewed", "posted_at", "updated_at").
			Values(post.PostID, string(post.Status), post.SellerID, post.CategoryID, post.RegionID, post.Title, post.Description,
				post.Price, nullableFloat(post.Latitude), nullableFloat(post.Longitude), nullableID(post.MinUsageID), nullableID(post.MaxUsageID),
				post.Viewed, post.PostedAt, post.UpdatedAt))
		if err != nil {
			return err
		}
		post.ID = id

		for _, attr := range attrs {
			attr.SalePostID = id
			if err := r.insertAttribute(ctx, attr); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) insertAttribute(ctx context.Context, attr *model.SalePostAttribute) error {
	id, err := r.store.Insert(ctx, r.store.Builder().Insert(postAttrsTable).
		Columns("sale_post_id", "attribute_id", "value_text", "value_number", "choice_id").
		Values(attr.SalePostID, attr.AttributeID, nullableString(attr.ValueText), nullableFloat(attr.ValueNumber), nullableID(attr.ChoiceID)))
	if err != nil {
		return err
	}
	attr.ID = id
	return nil
}

// listingSelector selects listings with seller, category and region joined.
// The returned table is the sale_posts alias for further predicates.
func (r *repository) listingSelector() (*entsql.Selector, *entsql.SelectTable) {
	b := r.store.Builder()
	sp := b.Table(salePostsTable).As("sp")
	u := b.Table("users").As("u")
	c := b.Table("categories").As("c")
	rg := b.Table("regions").As("r")

	sel := b.Select(
		sp.C("id"), sp.C("post_id"), sp.C("status"), sp.C("seller_id"), sp.C("category_id"), sp.C("region_id"),
		sp.C("title"), sp.C("description"), sp.C("price"), sp.C("latitude"), sp.C("longitude"),
		sp.C("min_usage_range_id"), sp.C("max_usage_range_id"), sp.C("viewed"), sp.C("posted_at"), sp.C("updated_at"),
		u.C("username"), c.C("name"), rg.C("name"), rg.C("latitude"), rg.C("longitude"),
	).
		From(sp).
		Join(u).On(sp.C("seller_id"), u.C("id")).
		Join(c).On(sp.C("category_id"), c.C("id")).
		Join(rg).On(sp.C("region_id"), rg.C("id"))
	return sel, sp
}

func scanListing(rows *entsql.Rows) (*Listing, error) {
	var (
		l                    Listing
		status               string
		lat, lng, rLat, rLng sql.NullFloat64
		minUsage, maxUsage   sql.NullInt64
	)
	if err := rows.Scan(
		&l.ID, &l.PostID, &status, &l.SellerID, &l.CategoryID, &l.RegionID,
		&l.Title, &l.Description, &l.Price, &lat, &lng,
		&minUsage, &maxUsage, &l.Viewed, &l.PostedAt, &l.UpdatedAt,
		&l.SellerUsername, &l.CategoryName, &l.RegionName, &rLat, &rLng,
	); err != nil {
		return nil, err
	}
	l.Status = model.SalePostStatus(status)
	l.Latitude, l.Longitude = floatPtr(lat), floatPtr(lng)
	l.RegionLatitude, l.RegionLongitude = floatPtr(rLat), floatPtr(rLng)
	l.MinUsageID, l.MaxUsageID = idPtr(minUsage), idPtr(maxUsage)
	return &l, nil
}

func (r *repository) queryListings(ctx context.Context, sel *entsql.Selector) ([]*Listing, error) {
	listings := []*Listing{}
	err := r.store.Query(ctx, sel, func(rows *entsql.Rows) error {
		l, err := scanListing(rows)
		if err != nil {
			return err
		}
		listings = append(listings, l)
		return nil
	})
	return listings, err
}

func (r *repository) GetByPostID(ctx context.Context, postID int) (*Listing, error) {
	sel, sp := r.listingSelector()
	sel.Where(entsql.EQ(sp.C("post_id"), postID))

	var listing *Listing
	err := r.store.QueryOne(ctx, sel, func(rows *entsql.Rows) error {
		var err error
		listing, err = scanListing(rows)
		return err
	})
	return listing, err
}

// Search returns published listings matching f in insertion order.
func (r *repository) Search(ctx context.Context, f search.Filter) ([]*Listing, error) {
	if (f.CategoryIDs != nil && len(f.CategoryIDs) == 0) || (f.RegionIDs != nil && len(f.RegionIDs) == 0) {
		return []*Listing{}, nil
	}

	sel, sp := r.listingSelector()
	sel.Where(entsql.EQ(sp.C("status"), string(model.SalePostPublished))).OrderBy(sp.C("id"))

	if len(f.CategoryIDs) > 0 {
		sel.Where(entsql.In(sp.C("category_id"), database.Args(f.CategoryIDs)...))
	}
	if len(f.RegionIDs) > 0 {
		sel.Where(entsql.In(sp.C("region_id"), database.Args(f.RegionIDs)...))
	}
	if f.PriceMin != nil {
		sel.Where(entsql.GTE(sp.C("price"), *f.PriceMin))
	}
	if f.PriceMax != nil {
		sel.Where(entsql.LTE(sp.C("price"), *f.PriceMax))
	}
	if f.PublishedSince != nil {
		sel.Where(entsql.GTE(sp.C("posted_at"), *f.PublishedSince))
	}
	if f.Keyword != "" {
		sel.Where(entsql.Or(
			entsql.ContainsFold(sp.C("title"), f.Keyword),
			entsql.ContainsFold(sp.C("description"), f.Keyword),
		))
	}
	return r.queryListings(ctx, sel)
}

// genderPostIDs lists posts whose gender attribute equals value, stored
// either as text or as a choice.
func (r *repository) genderPostIDs(ctx context.Context, value string) ([]int64, error) {
	b := r.store.Builder()
	spa := b.Table(postAttrsTable).As("spa")
	a := b.Table("attributes").As("a")
	ch := b.Table("attribute_choices").As("ch")

	q := b.Select(spa.C("sale_post_id")).
		From(spa).
		Join(a).On(spa.C("attribute_id"), a.C("id")).
		LeftJoin(ch).On(spa.C("choice_id"), ch.C("id")).
		Where(entsql.EQ(a.C("unique_name"), genderAttribute)).
		Where(entsql.Or(entsql.EQ(spa.C("value_text"), value), entsql.EQ(ch.C("value"), value)))

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

func (r *repository) Latest(ctx context.Context, f HomeFilter, limit int) ([]*Listing, error) {
	sel, sp := r.listingSelector()
	sel.Where(entsql.EQ(sp.C("status"), string(model.SalePostPublished)))

	if f.Gender != "" {
		ids, err := r.genderPostIDs(ctx, f.Gender)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*Listing{}, nil
		}
		sel.Where(entsql.In(sp.C("id"), database.Args(ids)...))
	}

	b := r.store.Builder()
	if f.MinUsage != nil {
		minRange := b.Table("usage_ranges").As("umin")
		sel.Join(minRange).On(sp.C("min_usage_range_id"), minRange.C("id")).
			Where(entsql.GTE(minRange.C("unique_id"), *f.MinUsage))
	}
	if f.MaxUsage != nil {
		maxRange := b.Table("usage_ranges").As("umax")
		sel.Join(maxRange).On(sp.C("max_usage_range_id"), maxRange.C("id")).
			Where(entsql.LTE(maxRange.C("unique_id"), *f.MaxUsage))
	}

	sel.OrderBy(entsql.Desc(sp.C("posted_at")), entsql.Desc(sp.C("id"))).Limit(limit)
	return r.queryListings(ctx, sel)
}

func (r *repository) InCategories(ctx context.Context, categoryIDs []int64, excludeID int64, limit int) ([]*Listing, error) {
	if len(categoryIDs) == 0 {
		return []*Listing{}, nil
	}
	sel, sp := r.listingSelector()
	sel.Where(entsql.EQ(sp.C("status"), string(model.SalePostPublished))).
		Where(entsql.In(sp.C("category_id"), database.Args(categoryIDs)...)).
		Where(entsql.NEQ(sp.C("id"), excludeID)).
		OrderBy(entsql.Desc(sp.C("posted_at")), entsql.Desc(sp.C("id"))).
		Limit(limit)
	return r.queryListings(ctx, sel)
}

// Attributes loads stored attribute values keyed by sale post id.
func (r *repository) Attributes(ctx context.Context, salePostIDs ...int64) (map[int64][]AttributeValue, error) {
	out := make(map[int64][]AttributeValue, len(salePostIDs))
	if len(salePostIDs) == 0 {
		return out, nil
	}

	b := r.store.Builder()
	spa := b.Table(postAttrsTable).As("spa")
	a := b.Table("attributes").As("a")
	ch := b.Table("attribute_choices").As("ch")

	q := b.Select(
		spa.C("sale_post_id"), spa.C("attribute_id"), a.C("unique_name"), a.C("data_type"),
		spa.C("value_text"), spa.C("value_number"), spa.C("choice_id"), ch.C("value"),
	).
		From(spa).
		Join(a).On(spa.C("attribute_id"), a.C("id")).
		LeftJoin(ch).On(spa.C("choice_id"), ch.C("id")).
		Where(entsql.In(spa.C("sale_post_id"), database.Args(salePostIDs)...)).
		OrderBy(spa.C("sale_post_id"), a.C("id"))

	err := r.store.Query(ctx, q, func(rows *entsql.Rows) error {
		var (
			v                 AttributeValue
			dataType          string
			text, choiceValue sql.NullString
			number            sql.NullFloat64
			choiceID          sql.NullInt64
		)
		if err := rows.Scan(&v.SalePostID, &v.AttributeID, &v.UniqueName, &dataType, &text, &number, &choiceID, &choiceValue); err != nil {
			return err
		}
		v.DataType = model.AttributeType(dataType)
		v.ValueText, v.ValueNumber = stringPtr(text), floatPtr(number)
		v.ChoiceID, v.ChoiceValue = idPtr(choiceID), stringPtr(choiceValue)
		out[v.SalePostID] = append(out[v.SalePostID], v)
		return nil
	})
	return out, err
}

// Update saves the editable fields and upserts attrs in one transaction.
func (r *repository) Update(ctx context.Context, post *model.SalePost, attrs []*model.SalePostAttribute) error {
	return r.store.InTx(ctx, func(ctx context.Context) error {
		b := r.store.Builder()
		_, err := r.store.Exec(ctx, b.Update(salePostsTable).
			Set("title", post.Title).
			Set("description", post.Description).
			Set("price", post.Price).
			Set("updated_at", post.UpdatedAt).
			Where(entsql.EQ("id", post.ID)))
		if err != nil {
			return err
		}

		for _, attr := range attrs {
			attr.SalePostID = post.ID
			if _, err := r.store.Exec(ctx, b.Delete(postAttrsTable).Where(entsql.And(
				entsql.EQ("sale_post_id", post.ID),
				entsql.EQ("attribute_id", attr.AttributeID),
			))); err != nil {
				return err
			}
			if err := r.insertAttribute(ctx, attr); err != nil {
				return err
			}
		}
		return nil
	})
}

// IncrementViews bumps the view counter in a single statement.
func (r *repository) IncrementViews(ctx context.Context, postID int) (bool, error) {
	n, err := r.store.Affected(ctx, r.store.Builder().Update(salePostsTable).
		Add("viewed", 1).
		Where(entsql.EQ("post_id", postID)))
	return n > 0, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.store.Exec(ctx, r.store.Builder().Delete(salePostsTable).Where(entsql.EQ("id", id)))
	return err
}
