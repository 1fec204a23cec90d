package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/abisalde/marketplace-service/internal/model"
)

// Candidate is a listing that passed the store filters, with its effective
// coordinates: its own, else its region's, else nil.
type Candidate struct {
	Post   *model.SalePost
	Coords *Point
}

type Hit struct {
	Post       *model.SalePost
	DistanceKm *float64
}

// Rank computes distances when a reference point is set, drops hits beyond
// MaxDistance and sorts by the requested key. Ties keep input order.
// Candidates without coordinates sort after every located one.
func Rank(candidates []Candidate, req *Request) []Hit {
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		h := Hit{Post: c.Post}
		if req.Reference != nil && c.Coords != nil {
			d := Haversine(*req.Reference, *c.Coords)
			h.DistanceKm = &d
		}
		if req.MaxDistance != nil && (h.DistanceKm == nil || *h.DistanceKm > *req.MaxDistance) {
			continue
		}
		hits = append(hits, h)
	}

	var less func(a, b Hit) bool
	switch req.SortBy {
	case SortPrice:
		less = func(a, b Hit) bool { return a.Post.Price.LessThan(b.Post.Price) }
	case SortDistance:
		less = func(a, b Hit) bool { return distanceOf(a) < distanceOf(b) }
	default:
		less = func(a, b Hit) bool { return a.Post.PostedAt.Before(b.Post.PostedAt) }
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if req.SortBy == SortDistance {
			li, lj := hits[i].DistanceKm != nil, hits[j].DistanceKm != nil
			if li != lj {
				return li
			}
		}
		if req.Desc {
			return less(hits[j], hits[i])
		}
		return less(hits[i], hits[j])
	})
	return hits
}

func distanceOf(h Hit) float64 {
	if h.DistanceKm == nil {
		return math.Inf(1)
	}
	return *h.DistanceKm
}

func formatKm(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

type Page struct {
	Count    int
	Page     int
	Limit    int
	Next     *int
	Previous *int
	Results  []Hit
}

// Paginate slices hits into page. The first page always exists, even when
// empty; any other page past the end is ErrInvalidPage.
func Paginate(hits []Hit, page, limit int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}

	pages := max(1, (len(hits)+limit-1)/limit)
	if page > pages {
		return nil, ErrInvalidPage
	}

	start := (page - 1) * limit
	end := min(start+limit, len(hits))

	p := &Page{Count: len(hits), Page: page, Limit: limit, Results: hits[start:end]}
	if page < pages {
		next := page + 1
		p.Next = &next
	}
	if page > 1 {
		prev := page - 1
		p.Previous = &prev
	}
	return p, nil
}
