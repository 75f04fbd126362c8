// Package db defines the storage contract for the remote vector backend and
// the embedding cache. The redis subpackage implements it via rueidis.
package db

import (
	"context"
	"time"
)

// StorageType is the FT index storage backing.
type StorageType string

// StorageHash indexes hash keys.
const StorageHash StorageType = "HASH"

// VectorField is the hash field holding the embedding blob.
const VectorField = "vector"

// IndexDefinition describes a cosine vector index over hash keys.
type IndexDefinition struct {
	Name      string
	Prefix    string
	Dimension int
}

// VectorItem is one document vector plus light metadata to store alongside.
type VectorItem struct {
	Key    string
	Vector []float32
	Meta   map[string]string
}

// Neighbor is one KNN hit. Similarity is cosine similarity clamped to [0,1].
type Neighbor struct {
	Key        string
	Similarity float64
}

// Store is the full storage contract.
type Store interface {
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error

	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)

	UpsertVectors(ctx context.Context, items []VectorItem) error
	SearchKNN(ctx context.Context, index string, vector []float32, k int) ([]Neighbor, error)

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
