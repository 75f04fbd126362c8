// Package result defines the search hit returned by the engine.
package result

import "github.com/shoppilot/prosearch/internal/domain/catalog"

// Result is a single ranked search hit. Score is the fused value; BM25Norm
// and Semantic are the per-path scores, both in [0,1].
type Result struct {
	Product  catalog.Product
	Score    float64
	BM25Norm float64
	Semantic float64
}
