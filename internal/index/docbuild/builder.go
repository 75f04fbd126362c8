// Package docbuild turns catalog records into indexed documents: one
// canonical text blob per product, rich enough for both the lexical and the
// semantic path, plus the tokenized form and a stable corpus position.
package docbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shoppilot/prosearch/internal/domain/catalog"
	"github.com/shoppilot/prosearch/internal/index/token"
)

// Document is the indexed form of a catalog record. Pos aligns the lexical
// score vector, the semantic score vector, and the product slice.
type Document struct {
	ID     string
	Pos    int
	Text   string
	Tokens []string
}

// Build converts a product snapshot into indexed documents, one per record,
// positions assigned in input order.
func Build(products []catalog.Product) []Document {
	docs := make([]Document, len(products))
	for i := range products {
		text := BuildText(&products[i])
		docs[i] = Document{
			ID:     products[i].ID,
			Pos:    i,
			Text:   text,
			Tokens: token.Tokenize(text),
		}
	}
	return docs
}

// BuildText concatenates the product's structured fields into one text
// surface. Spec keys are emitted in sorted order so the blob is stable
// across runs.
func BuildText(p *catalog.Product) string {
	parts := make([]string, 0, 8+len(p.Specs))

	parts = append(parts, p.Name)
	parts = append(parts, "Brand: "+p.Brand)
	parts = append(parts, "Category: "+p.Category)
	parts = append(parts, p.Description)
	if p.Details != "" {
		parts = append(parts, p.Details)
	}

	if len(p.Specs) > 0 {
		keys := make([]string, 0, len(p.Specs))
		for k := range p.Specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+p.Specs[k])
		}
	}

	if p.Rating > 0 {
		parts = append(parts, fmt.Sprintf("Rating: %g/5 stars", p.Rating))
	}
	if p.ReviewCount > 0 {
		parts = append(parts, fmt.Sprintf("Customer reviews: %d reviews", p.ReviewCount))
	}

	if len(p.Reviews) > 0 {
		reviews := p.Reviews
		if len(reviews) > catalog.MaxResolvedReviews {
			reviews = reviews[:catalog.MaxResolvedReviews]
		}
		comments := make([]string, 0, len(reviews))
		for _, r := range reviews {
			if r.Comment != "" {
				comments = append(comments, r.Comment)
			}
		}
		if len(comments) > 0 {
			parts = append(parts, "Customer feedback: "+strings.Join(comments, " | "))
		}
	}

	return strings.Join(parts, " ")
}
