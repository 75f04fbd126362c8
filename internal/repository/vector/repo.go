// Package vector adapts the db.Store vector operations to the semantic
// index's VectorStore contract, owning key namespacing.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shoppilot/prosearch/internal/db"
	"github.com/shoppilot/prosearch/internal/index/semantic"
)

// Repo implements semantic.VectorStore on a db.Store.
type Repo struct {
	store     db.Store
	indexName string
	keyPrefix string
}

// Compile-time check.
var _ semantic.VectorStore = (*Repo)(nil)

// New creates a vector repository. Keys are written as keyPrefix + id, and
// the FT index is scoped to that prefix.
func New(store db.Store, indexName, keyPrefix string) *Repo {
	return &Repo{store: store, indexName: indexName, keyPrefix: keyPrefix}
}

// EnsureIndex creates the cosine index if absent.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	err := r.store.CreateIndex(ctx, &db.IndexDefinition{
		Name:      r.indexName,
		Prefix:    r.keyPrefix,
		Dimension: dim,
	})
	if errors.Is(err, db.ErrIndexExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert writes one batch of vectors under the repo's namespace.
func (r *Repo) Upsert(ctx context.Context, items []semantic.VectorUpsert) error {
	dbItems := make([]db.VectorItem, len(items))
	for i, item := range items {
		dbItems[i] = db.VectorItem{
			Key:    r.keyPrefix + item.ID,
			Vector: item.Vector,
			Meta:   item.Meta,
		}
	}
	if err := r.store.UpsertVectors(ctx, dbItems); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// QueryKNN returns the k nearest stored vectors as (id, similarity) pairs,
// with the namespace prefix stripped from keys.
func (r *Repo) QueryKNN(ctx context.Context, vec []float32, k int) ([]semantic.Neighbor, error) {
	hits, err := r.store.SearchKNN(ctx, r.indexName, vec, k)
	if err != nil {
		return nil, fmt.Errorf("knn query %s: %w", r.indexName, err)
	}

	neighbors := make([]semantic.Neighbor, 0, len(hits))
	for _, h := range hits {
		neighbors = append(neighbors, semantic.Neighbor{
			ID:         strings.TrimPrefix(h.Key, r.keyPrefix),
			Similarity: h.Similarity,
		})
	}
	return neighbors, nil
}

// Namespace returns the key prefix scoping this repo's vectors.
func (r *Repo) Namespace() string { return r.keyPrefix }
