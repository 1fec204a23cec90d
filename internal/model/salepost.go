package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalePostStatus string

const (
	SalePostPending     SalePostStatus = "pending"
	SalePostPublished   SalePostStatus = "published"
	SalePostSold        SalePostStatus = "sold"
	SalePostDeactivated SalePostStatus = "deactivated"
)

type SalePost struct {
	ID          int64
	PostID      int
	Status      SalePostStatus
	SellerID    int64
	CategoryID  int64
	RegionID    int64
	Title       string
	Description string
	Price       decimal.Decimal
	Latitude    *float64
	Longitude   *float64
	MinUsageID  *int64
	MaxUsageID  *int64
	Viewed      int
	PostedAt    time.Time
	UpdatedAt   time.Time
}

// SalePostAttribute is one typed value; exactly one of the value fields is set.
type SalePostAttribute struct {
	ID          int64
	SalePostID  int64
	AttributeID int64
	ValueText   *string
	ValueNumber *float64
	ChoiceID    *int64
}
