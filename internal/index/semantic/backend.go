// Package semantic holds the dense-vector side of retrieval: a backend
// contract with two interchangeable implementations, a remote
// nearest-neighbor index and an in-memory cosine matrix.
package semantic

import "context"

// Backend kinds as reported by health and init status.
const (
	KindRemote   = "remote"
	KindInMemory = "in_memory"
	KindNone     = "none"
)

// Backend scores a query text against every indexed document, returning a
// dense vector of similarity scores in [0,1] aligned by document position.
type Backend interface {
	Score(ctx context.Context, queryText string) ([]float64, error)
	Kind() string
	Stats() Stats
}

// Stats describes the built semantic index for the health report.
type Stats struct {
	Documents int    `json:"documents"`
	Dimension int    `json:"dimension"`
	Namespace string `json:"namespace,omitempty"`
}

// VectorUpsert is one (id, vector, light metadata) tuple for the remote
// index.
type VectorUpsert struct {
	ID     string
	Vector []float32
	Meta   map[string]string
}

// Neighbor is one (id, similarity) pair returned by a top-K query.
type Neighbor struct {
	ID         string
	Similarity float64
}

// VectorStore is the consumer contract for the remote nearest-neighbor
// service: create-if-absent index, batched namespaced upserts, top-K query.
type VectorStore interface {
	EnsureIndex(ctx context.Context, dim int) error
	Upsert(ctx context.Context, items []VectorUpsert) error
	QueryKNN(ctx context.Context, vector []float32, k int) ([]Neighbor, error)
	Namespace() string
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
