package docbuild

import (
	"strings"
	"testing"

	"github.com/shoppilot/prosearch/internal/domain/catalog"
)

func sampleProduct() catalog.Product {
	return catalog.Product{
		ID:          "p1",
		Name:        "AcousticPro Studio Headphones",
		Brand:       "AcousticPro",
		Category:    "Audio",
		Description: "Closed-back studio headphones with neutral tuning.",
		Details:     "Detachable cable, 50mm drivers.",
		Specs: map[string]string{
			"impedance": "32 ohm",
			"driver":    "50mm dynamic",
		},
		Price:       199.99,
		Rating:      4.5,
		ReviewCount: 128,
		Reviews: []catalog.Review{
			{Rating: 5, Comment: "Great clarity"},
			{Rating: 4, Comment: "Comfortable for long sessions"},
		},
	}
}

func TestBuildText_IncludesAllSurfaces(t *testing.T) {
	p := sampleProduct()
	text := BuildText(&p)

	for _, want := range []string{
		"AcousticPro Studio Headphones",
		"Brand: AcousticPro",
		"Category: Audio",
		"Closed-back studio headphones",
		"Detachable cable",
		"driver: 50mm dynamic",
		"impedance: 32 ohm",
		"Rating: 4.5/5 stars",
		"Customer reviews: 128 reviews",
		"Customer feedback: Great clarity | Comfortable for long sessions",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
}

func TestBuildText_Deterministic(t *testing.T) {
	// Spec maps have random iteration order; the blob must not.
	p := sampleProduct()
	first := BuildText(&p)
	for i := 0; i < 20; i++ {
		if got := BuildText(&p); got != first {
			t.Fatalf("BuildText not deterministic:\n%s\nvs\n%s", got, first)
		}
	}
}

func TestBuildText_OmitsEmptyOptionalFields(t *testing.T) {
	p := catalog.Product{ID: "p2", Name: "Basic Cable", Brand: "NoName", Category: "Accessories"}
	text := BuildText(&p)

	if strings.Contains(text, "Rating:") {
		t.Error("zero rating must not appear in text")
	}
	if strings.Contains(text, "Customer reviews:") {
		t.Error("zero review count must not appear in text")
	}
	if strings.Contains(text, "Customer feedback:") {
		t.Error("empty reviews must not appear in text")
	}
}

func TestBuildText_CapsResolvedReviews(t *testing.T) {
	p := sampleProduct()
	p.Reviews = nil
	for i := 0; i < catalog.MaxResolvedReviews+5; i++ {
		p.Reviews = append(p.Reviews, catalog.Review{Rating: 5, Comment: "review"})
	}
	text := BuildText(&p)

	if got := strings.Count(text, "review |") + 1; got > catalog.MaxResolvedReviews {
		t.Errorf("expected at most %d review comments, got %d", catalog.MaxResolvedReviews, got)
	}
}

func TestBuild_AssignsPositionsInOrder(t *testing.T) {
	products := []catalog.Product{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta"},
		{ID: "c", Name: "Gamma"},
	}

	docs := Build(products)
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	for i, doc := range docs {
		if doc.Pos != i {
			t.Errorf("doc %s: pos = %d, want %d", doc.ID, doc.Pos, i)
		}
		if doc.ID != products[i].ID {
			t.Errorf("doc %d: id = %s, want %s", i, doc.ID, products[i].ID)
		}
		if len(doc.Tokens) == 0 {
			t.Errorf("doc %s has no tokens", doc.ID)
		}
	}
}
