package service

import (
	"strings"

	"github.com/shinyyama/scrap-exchange/internal/model"
)

// ListingFilter narrows the marketplace view. Zero values match everything.
type ListingFilter struct {
	Category  string
	Search    string
	MinWeight *float64
	MaxWeight *float64
}

// FilterListings keeps the listings matching f, preserving order.
func FilterListings(list []model.Listing, f ListingFilter) []model.Listing {
	category := strings.TrimSpace(f.Category)
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Listing, 0, len(list))
	for _, l := range list {
		if category != "" && !strings.EqualFold(l.Category, category) {
			continue
		}
		if f.MinWeight != nil && l.WeightKg < *f.MinWeight {
			continue
		}
		if f.MaxWeight != nil && l.WeightKg > *f.MaxWeight {
			continue
		}
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesSearch(l model.Listing, needle string) bool {
	if strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.Description), needle) {
		return true
	}
	return l.Location != nil && strings.Contains(strings.ToLower(*l.Location), needle)
}
