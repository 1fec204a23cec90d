package salepost

import (
	"time"

	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/internal/salepost/search"
)

type AttributeView struct {
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
}

type View struct {
	PostID      int             `json:"post_id"`
	Status      string          `json:"post_status"`
	Seller      string          `json:"seller"`
	Category    string          `json:"category"`
	Region      string          `json:"region"`
	Title       string          `json:"post_title"`
	Description string          `json:"description"`
	PostedAt    time.Time       `json:"posted_at"`
	Viewed      int             `json:"viewed"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Price       string          `json:"product_price"`
	Attributes  []AttributeView `json:"attributes"`
	DistanceKm  string          `json:"distance_km,omitempty"`
}

func attributeValue(v AttributeValue) any {
	switch {
	case v.DataType.HasChoices():
		if v.ChoiceValue != nil {
			return *v.ChoiceValue
		}
		return nil
	case v.DataType == model.AttributeTypeNumber && v.ValueNumber != nil:
		return *v.ValueNumber
	case v.ValueText != nil:
		return *v.ValueText
	}
	return nil
}

func newView(l *Listing, attrs []AttributeValue, distanceKm *float64) View {
	v := View{
		PostID:      l.PostID,
		Status:      string(l.Status),
		Seller:      l.SellerUsername,
		Category:    l.CategoryName,
		Region:      l.RegionName,
		Title:       l.Title,
		Description: l.Description,
		PostedAt:    l.PostedAt.UTC(),
		Viewed:      l.Viewed,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Price:       l.Price.StringFixed(2),
	}
	for _, a := range attrs {
		v.Attributes = append(v.Attributes, AttributeView{Attribute: a.UniqueName, Value: attributeValue(a)})
	}
	if distanceKm != nil {
		v.DistanceKm = search.FormatDistance(*distanceKm)
	}
	return v
}
