package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
// BatchEmbed returns one vector per input text, in input order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BatchEmbeddingResult carries embedding vectors and aggregate token usage
// through the decorator chain.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedOne vectorizes a single text via a batch call.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed one: %w", err)
	}
	if len(res.Embeddings) != 1 {
		return nil, fmt.Errorf("embed one: expected 1 vector, got %d: %w",
			len(res.Embeddings), ErrEmbeddingProviderError)
	}
	return res.Embeddings[0], nil
}
