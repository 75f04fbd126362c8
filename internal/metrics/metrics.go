// Package metrics holds the Prometheus collectors and the HTTP middleware.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and index metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "search_requests_total",
			Help:      "Total number of search calls",
		},
		[]string{"mode", "outcome"}, // outcome: "results" / "empty"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prosearch",
			Name:      "search_duration_seconds",
			Help:      "Search call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "index_rebuilds_total",
			Help:      "Total number of index rebuilds",
		},
		[]string{"status"}, // "ready" / "degraded" / "empty" / "error"
	)

	IndexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prosearch",
			Name:      "indexed_documents",
			Help:      "Number of documents in the current index snapshot",
		},
	)
)

// Embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prosearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prosearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registered bool

// Register registers all engine and embedding collectors. Must be called
// once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(IndexedDocuments)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	registered = true
}
