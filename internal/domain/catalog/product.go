// Package catalog defines the read-only product record shape supplied by the
// catalog store. The engine only sees a snapshot of these records at
// initialization time and never mutates them.
package catalog

// MaxResolvedReviews is the most review snippets the catalog store resolves
// per product before handing records over.
const MaxResolvedReviews = 10

// Review is a resolved customer review snippet.
type Review struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// Product is a single catalog record.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Details     string            `json:"details,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
	Price       float64           `json:"price"`
	Rating      float64           `json:"rating"`
	ReviewCount int               `json:"review_count"`
	Stock       int               `json:"stock"`
	Image       string            `json:"image,omitempty"`
	Reviews     []Review          `json:"reviews,omitempty"`
}
