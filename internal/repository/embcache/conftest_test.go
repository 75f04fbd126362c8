package embcache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shoppilot/prosearch/internal/db"
	"github.com/shoppilot/prosearch/internal/domain"
)

// mockEmbedder generates one fixed vector per requested text.
type mockEmbedder struct {
	vec        []float32
	err        error
	batchCalls int
	lastTexts  []string
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.lastTexts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.vec
	}
	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: 7 * len(texts),
	}, nil
}

// mockKVStore implements the consumer interface for tests. lastTTL records
// the expiry of the most recent SetWithTTL write.
type mockKVStore struct {
	data    map[string][]byte
	getFn   func(ctx context.Context, key string) ([]byte, error)
	setFn   func(ctx context.Context, key string, value []byte) error
	lastTTL time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.lastTTL = ttl
	return m.Set(ctx, key, value)
}

func newTestCache(inner domain.Embedder, s store) *CachedEmbedder {
	return New(inner, s, 0, nil, zap.NewNop())
}
