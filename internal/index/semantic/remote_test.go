package semantic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// mockVectorStore records calls and can fail selectively.
type mockVectorStore struct {
	ensureDim     int
	ensureErr     error
	upsertBatches [][]VectorUpsert
	upsertErr     error
	neighbors     []Neighbor
	queryErr      error
	lastK         int
}

func (m *mockVectorStore) EnsureIndex(_ context.Context, dim int) error {
	m.ensureDim = dim
	return m.ensureErr
}

func (m *mockVectorStore) Upsert(_ context.Context, items []VectorUpsert) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	batch := make([]VectorUpsert, len(items))
	copy(batch, items)
	m.upsertBatches = append(m.upsertBatches, batch)
	return nil
}

func (m *mockVectorStore) QueryKNN(_ context.Context, _ []float32, k int) ([]Neighbor, error) {
	m.lastK = k
	return m.neighbors, m.queryErr
}

func (m *mockVectorStore) Namespace() string { return "test:" }

func buildTestRemote(t *testing.T, store *mockVectorStore, emb *mockEmbedder, n int) *RemoteIndex {
	t.Helper()
	ids := make([]string, n)
	metas := make([]map[string]string, n)
	vectors := make([][]float32, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
		vectors[i] = []float32{float32(i + 1), 0}
	}
	ix, err := NewRemoteIndex(context.Background(), store, emb, ids, metas, vectors, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRemoteIndex: %v", err)
	}
	return ix
}

func TestNewRemoteIndex_EnsuresIndexAndUpsertsInBatches(t *testing.T) {
	store := &mockVectorStore{}
	buildTestRemote(t, store, &mockEmbedder{}, UpsertBatchSize*2+5)

	if store.ensureDim != 2 {
		t.Errorf("ensured dim = %d, want 2", store.ensureDim)
	}
	if len(store.upsertBatches) != 3 {
		t.Fatalf("expected 3 upsert batches, got %d", len(store.upsertBatches))
	}
	if len(store.upsertBatches[0]) != UpsertBatchSize {
		t.Errorf("first batch size = %d, want %d", len(store.upsertBatches[0]), UpsertBatchSize)
	}
	if len(store.upsertBatches[2]) != 5 {
		t.Errorf("last batch size = %d, want 5", len(store.upsertBatches[2]))
	}
}

func TestNewRemoteIndex_SetupErrorsSurface(t *testing.T) {
	emb := &mockEmbedder{}
	ids := []string{"a"}
	vectors := [][]float32{{1, 0}}

	store := &mockVectorStore{ensureErr: errors.New("index create failed")}
	if _, err := NewRemoteIndex(context.Background(), store, emb, ids, nil, vectors, zap.NewNop()); err == nil {
		t.Error("expected EnsureIndex error to surface")
	}

	store = &mockVectorStore{upsertErr: errors.New("upsert failed")}
	if _, err := NewRemoteIndex(context.Background(), store, emb, ids, nil, vectors, zap.NewNop()); err == nil {
		t.Error("expected Upsert error to surface")
	}
}

func TestRemoteScore_ScattersNeighborsByPosition(t *testing.T) {
	store := &mockVectorStore{
		neighbors: []Neighbor{
			{ID: "p2", Similarity: 0.9},
			{ID: "p0", Similarity: 0.4},
			{ID: "unknown", Similarity: 0.8}, // not in the corpus, ignored
		},
	}
	emb := &mockEmbedder{byText: map[string][]float32{"query": {1, 0}}}
	ix := buildTestRemote(t, store, emb, 3)

	scores, err := ix.Score(context.Background(), "query")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if store.lastK != 3 {
		t.Errorf("k = %d, want corpus size 3", store.lastK)
	}
	want := []float64{0.4, 0, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("scores[%d] = %g, want %g", i, scores[i], want[i])
		}
	}
}

func TestRemoteScore_ClampsSimilarity(t *testing.T) {
	store := &mockVectorStore{
		neighbors: []Neighbor{
			{ID: "p0", Similarity: 1.7},
			{ID: "p1", Similarity: -0.2},
		},
	}
	emb := &mockEmbedder{byText: map[string][]float32{"query": {1, 0}}}
	ix := buildTestRemote(t, store, emb, 2)

	scores, err := ix.Score(context.Background(), "query")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores[0] != 1 {
		t.Errorf("similarity above 1 must clamp: got %g", scores[0])
	}
	if scores[1] != 0 {
		t.Errorf("similarity below 0 must clamp: got %g", scores[1])
	}
}

func TestRemoteScore_FallsBackToLocalMatrixOnQueryError(t *testing.T) {
	store := &mockVectorStore{queryErr: errors.New("connection reset")}
	emb := &mockEmbedder{byText: map[string][]float32{"query": {1, 0}}}
	ix := buildTestRemote(t, store, emb, 3)

	scores, err := ix.Score(context.Background(), "query")
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	// Every corpus vector is (i+1, 0), parallel to the query, so local
	// cosine scoring gives 1 for each.
	for i, s := range scores {
		if s != 1 {
			t.Errorf("fallback scores[%d] = %g, want 1", i, s)
		}
	}
}

func TestRemoteStats(t *testing.T) {
	ix := buildTestRemote(t, &mockVectorStore{}, &mockEmbedder{}, 4)

	stats := ix.Stats()
	if stats.Documents != 4 || stats.Dimension != 2 || stats.Namespace != "test:" {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if ix.Kind() != KindRemote {
		t.Errorf("kind = %s, want %s", ix.Kind(), KindRemote)
	}
}
