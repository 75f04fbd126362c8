package semantic

import (
	"context"
	"fmt"
	"math"

	"github.com/shoppilot/prosearch/internal/domain"
)

// InMemoryIndex holds one embedding per document and scores queries by
// brute-force cosine similarity. Used when no remote backend is configured
// or its setup failed at build time.
type InMemoryIndex struct {
	embedder domain.Embedder
	vectors  [][]float32
	dim      int
}

// NewInMemoryIndex builds an in-memory index over the document embeddings.
// All vectors must share one dimension.
func NewInMemoryIndex(embedder domain.Embedder, vectors [][]float32) (*InMemoryIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors: %w", domain.ErrVectorDimMismatch)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dim %d, want %d: %w",
				i, len(v), dim, domain.ErrVectorDimMismatch)
		}
	}
	return &InMemoryIndex{embedder: embedder, vectors: vectors, dim: dim}, nil
}

// Score embeds the query and returns cosine similarity against every row,
// clipped to [0,1], in corpus order.
func (ix *InMemoryIndex) Score(ctx context.Context, queryText string) ([]float64, error) {
	qv, err := domain.EmbedOne(ctx, ix.embedder, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.ScoreVector(qv), nil
}

// ScoreVector scores an already-embedded query vector. Rows with a
// mismatched dimension score 0.
func (ix *InMemoryIndex) ScoreVector(qv []float32) []float64 {
	scores := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = clamp01(cosine(qv, v))
	}
	return scores
}

// Kind implements Backend.
func (ix *InMemoryIndex) Kind() string { return KindInMemory }

// Stats implements Backend.
func (ix *InMemoryIndex) Stats() Stats {
	return Stats{Documents: len(ix.vectors), Dimension: ix.dim}
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or the dimensions differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
