package query

import (
	"strings"

	"github.com/shoppilot/prosearch/internal/domain/catalog"
)

// Filters are optional structured constraints applied after fusion.
// Category and Brand match case-insensitively as substrings against the
// record's own field, not the indexed text blob. Price bounds and the rating
// bound are inclusive.
type Filters struct {
	Category  string
	Brand     string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Category == "" && f.Brand == "" &&
		f.MinPrice == nil && f.MaxPrice == nil && f.MinRating == nil
}

// Impossible reports whether the filter can never match anything.
func (f Filters) Impossible() bool {
	return f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice
}

// Match reports whether the product satisfies every set filter.
func (f Filters) Match(p *catalog.Product) bool {
	if f.Category != "" && !containsFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != "" && !containsFold(p.Brand, f.Brand) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
