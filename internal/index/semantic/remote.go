package semantic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shoppilot/prosearch/internal/domain"
)

// UpsertBatchSize bounds upsert requests to respect the remote service's
// request-size limits.
const UpsertBatchSize = 100

// RemoteIndex keeps document vectors in an external nearest-neighbor service
// and queries it top-K with K = corpus size, so every document receives a
// score. It retains the embeddings locally as well: a failed remote query
// falls back to in-memory cosine scoring for that call instead of failing
// the search.
type RemoteIndex struct {
	store    VectorStore
	embedder domain.Embedder
	posByID  map[string]int
	count    int
	dim      int
	fallback *InMemoryIndex
	logger   *zap.Logger
}

// NewRemoteIndex ensures the remote index exists, upserts all document
// vectors in batches, and returns the backend. ids, metas, and vectors are
// aligned by position.
func NewRemoteIndex(
	ctx context.Context,
	store VectorStore,
	embedder domain.Embedder,
	ids []string,
	metas []map[string]string,
	vectors [][]float32,
	logger *zap.Logger,
) (*RemoteIndex, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	fallback, err := NewInMemoryIndex(embedder, vectors)
	if err != nil {
		return nil, fmt.Errorf("build local matrix: %w", err)
	}

	if err := store.EnsureIndex(ctx, fallback.dim); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	items := make([]VectorUpsert, len(ids))
	for i, id := range ids {
		var meta map[string]string
		if i < len(metas) {
			meta = metas[i]
		}
		items[i] = VectorUpsert{ID: id, Vector: vectors[i], Meta: meta}
	}
	for start := 0; start < len(items); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(items) {
			end = len(items)
		}
		if err := store.Upsert(ctx, items[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
	}

	posByID := make(map[string]int, len(ids))
	for i, id := range ids {
		posByID[id] = i
	}

	return &RemoteIndex{
		store:    store,
		embedder: embedder,
		posByID:  posByID,
		count:    len(ids),
		dim:      fallback.dim,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Score embeds the query once and issues a top-K query with K = corpus
// size, scattering (id, similarity) pairs back into a dense vector by
// position. Unknown ids are ignored. A remote failure degrades to the local
// cosine matrix for this call only.
func (ix *RemoteIndex) Score(ctx context.Context, queryText string) ([]float64, error) {
	qv, err := domain.EmbedOne(ctx, ix.embedder, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := ix.store.QueryKNN(ctx, qv, ix.count)
	if err != nil {
		ix.logger.Warn("remote knn query failed, falling back to local matrix",
			zap.String("namespace", ix.store.Namespace()),
			zap.Error(err),
		)
		return ix.fallback.ScoreVector(qv), nil
	}

	scores := make([]float64, ix.count)
	for _, n := range neighbors {
		pos, ok := ix.posByID[n.ID]
		if !ok {
			continue
		}
		scores[pos] = clamp01(n.Similarity)
	}
	return scores, nil
}

// Kind implements Backend.
func (ix *RemoteIndex) Kind() string { return KindRemote }

// Stats implements Backend.
func (ix *RemoteIndex) Stats() Stats {
	return Stats{
		Documents: ix.count,
		Dimension: ix.dim,
		Namespace: ix.store.Namespace(),
	}
}
