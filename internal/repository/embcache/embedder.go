// Package embcache caches embeddings in a key-value store so a full
// re-initialization does not re-bill the provider for unchanged texts.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shoppilot/prosearch/internal/db"
	"github.com/shoppilot/prosearch/internal/domain"
)

const cacheKeyPrefix = "prosearch:emb_cache:"

// store is the consumer interface for the embedding cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder is a caching decorator around a batch embedder. Cache hits
// consume no tokens; only the missing texts go to the inner embedder, in one
// batch, and the merged result preserves input order.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates the caching decorator. ttl bounds cache entry lifetime, zero
// means no expiry. cacheTotal is a counter vec with label "result"
// ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// BatchEmbed implements domain.Embedder.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		key := c.cacheKey(text)
		if vec, ok := c.getFromCache(ctx, key); ok {
			c.incCache("hit")
			out[i] = vec
			continue
		}
		c.incCache("miss")
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	res, err := c.inner.BatchEmbed(ctx, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"embedder returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(missTexts), domain.ErrEmbeddingProviderError)
	}

	for j, i := range missIdx {
		out[i] = res.Embeddings[j]
		c.putToCache(ctx, c.cacheKey(missTexts[j]), res.Embeddings[j])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck forwards provider availability through the decorator.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
