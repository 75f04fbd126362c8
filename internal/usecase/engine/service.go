// Package engine is the retrieval facade: it owns the index lifecycle
// (Initialize, Search, Health) and coordinates the tokenizer, document
// builder, lexical index, semantic index, fusion, and the relevance gate.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shoppilot/prosearch/internal/domain"
	"github.com/shoppilot/prosearch/internal/domain/catalog"
	"github.com/shoppilot/prosearch/internal/domain/query"
	"github.com/shoppilot/prosearch/internal/domain/result"
	"github.com/shoppilot/prosearch/internal/index/docbuild"
	"github.com/shoppilot/prosearch/internal/index/lexical"
	"github.com/shoppilot/prosearch/internal/index/semantic"
	"github.com/shoppilot/prosearch/internal/index/token"
	"github.com/shoppilot/prosearch/internal/metrics"
)

// Status is the initialization outcome.
type Status string

const (
	// StatusReady means both retrieval paths are serving.
	StatusReady Status = "ready"
	// StatusDegraded means the engine serves lexical-only results.
	StatusDegraded Status = "degraded"
	// StatusEmpty means the catalog had no records; the engine is not ready.
	StatusEmpty Status = "empty"
)

// InitReport summarizes an Initialize call.
type InitReport struct {
	Status        Status `json:"status"`
	ProductCount  int    `json:"product_count"`
	VectorBackend string `json:"vector_backend"`
	EmbedModel    string `json:"embed_model,omitempty"`
}

// Report is the health surface. EmbedderReachable is nil when no embedder is
// configured or the provider exposes no health check.
type Report struct {
	Ready             bool            `json:"ready"`
	ProductsIndexed   int             `json:"products_indexed"`
	BM25Ready         bool            `json:"bm25_ready"`
	VectorBackend     string          `json:"vector_backend"`
	FusionConstant    int             `json:"fusion_constant"`
	FusionAlpha       float64         `json:"fusion_alpha"`
	MinBM25           float64         `json:"min_bm25_threshold"`
	MinSemantic       float64         `json:"min_semantic_threshold"`
	EmbedderReachable *bool           `json:"embedder_reachable,omitempty"`
	Backend           *semantic.Stats `json:"backend,omitempty"`
}

// snapshot is one fully-built index set. All four slices/indexes are aligned
// by document position. Snapshots are immutable once published.
type snapshot struct {
	products   []catalog.Product
	docs       []docbuild.Document
	textsLower []string
	lexical    *lexical.Index
	semantic   semantic.Backend // nil when embeddings are unavailable
}

// Engine is an explicitly-constructed retrieval engine. No package-level
// state: tests and callers own as many independently-configured instances as
// they need.
//
// Initialize is exclusive; Search reads the current snapshot through an
// atomic pointer, so concurrent searches during a rebuild observe either the
// old or the new index set, never a partially-built one.
type Engine struct {
	cfg      Config
	source   Source
	embedder domain.Embedder
	vectors  semantic.VectorStore
	rules    []Rule
	logger   *zap.Logger

	initMu sync.Mutex
	snap   atomic.Pointer[snapshot]
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder sets the embedding provider. Without one the engine serves
// lexical-only results.
func WithEmbedder(e domain.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithVectorStore sets the remote nearest-neighbor backend. Without one the
// semantic index stays in memory.
func WithVectorStore(vs semantic.VectorStore) Option {
	return func(eng *Engine) { eng.vectors = vs }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithRules replaces the product-type heuristic table.
func WithRules(rules []Rule) Option {
	return func(eng *Engine) { eng.rules = rules }
}

// New creates an engine over the catalog source.
func New(cfg Config, source Source, opts ...Option) *Engine {
	eng := &Engine{
		cfg:    cfg.withDefaults(),
		source: source,
		rules:  DefaultRules(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Ready reports whether a snapshot has been published.
func (e *Engine) Ready() bool {
	return e.snap.Load() != nil
}

// Initialize loads the catalog and rebuilds every index from scratch,
// publishing the result atomically. It is always a full rebuild; there is no
// incremental update path. Embedding or remote-backend failures degrade the
// engine (lexical-only, or in-memory semantic) instead of failing it — only
// an unreachable catalog is fatal.
func (e *Engine) Initialize(ctx context.Context) (InitReport, error) {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	products, err := e.source.Products(ctx)
	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return InitReport{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(products) == 0 {
		e.snap.Store(nil)
		metrics.IndexRebuildsTotal.WithLabelValues(string(StatusEmpty)).Inc()
		metrics.IndexedDocuments.Set(0)
		e.logger.Warn("catalog snapshot is empty, engine not ready")
		return InitReport{Status: StatusEmpty, VectorBackend: semantic.KindNone}, nil
	}

	docs := docbuild.Build(products)
	corpus := make([][]string, len(docs))
	textsLower := make([]string, len(docs))
	for i := range docs {
		corpus[i] = docs[i].Tokens
		textsLower[i] = strings.ToLower(docs[i].Text)
	}
	lex := lexical.Build(corpus)

	backend := e.buildSemantic(ctx, docs, products)

	snap := &snapshot{
		products:   products,
		docs:       docs,
		textsLower: textsLower,
		lexical:    lex,
		semantic:   backend,
	}
	e.snap.Store(snap)

	report := InitReport{
		Status:        StatusReady,
		ProductCount:  len(products),
		VectorBackend: semantic.KindNone,
		EmbedModel:    e.cfg.EmbedModel,
	}
	if backend != nil {
		report.VectorBackend = backend.Kind()
	} else {
		report.Status = StatusDegraded
	}

	metrics.IndexRebuildsTotal.WithLabelValues(string(report.Status)).Inc()
	metrics.IndexedDocuments.Set(float64(len(products)))
	e.logger.Info("index rebuilt",
		zap.Int("products", len(products)),
		zap.String("vector_backend", report.VectorBackend),
		zap.String("status", string(report.Status)),
	)
	return report, nil
}

// buildSemantic embeds the corpus and selects a backend, degrading remote →
// in-memory → none as steps fail.
func (e *Engine) buildSemantic(ctx context.Context, docs []docbuild.Document, products []catalog.Product) semantic.Backend {
	if e.embedder == nil {
		e.logger.Info("no embedder configured, serving lexical-only")
		return nil
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	vectors, err := e.embedAll(ctx, texts)
	if err != nil {
		e.logger.Warn("corpus embedding failed, serving lexical-only", zap.Error(err))
		return nil
	}

	if e.vectors != nil {
		ids := make([]string, len(docs))
		metas := make([]map[string]string, len(docs))
		for i := range docs {
			ids[i] = docs[i].ID
			metas[i] = map[string]string{
				"name":     products[i].Name,
				"category": products[i].Category,
			}
		}
		remote, err := semantic.NewRemoteIndex(ctx, e.vectors, e.embedder, ids, metas, vectors, e.logger)
		if err == nil {
			return remote
		}
		e.logger.Warn("remote vector index setup failed, using in-memory backend", zap.Error(err))
	}

	mem, err := semantic.NewInMemoryIndex(e.embedder, vectors)
	if err != nil {
		e.logger.Warn("in-memory semantic index build failed, serving lexical-only", zap.Error(err))
		return nil
	}
	return mem
}

// embedAll batches the corpus through the embedder, respecting the
// provider's batch-size limit and preserving order.
func (e *Engine) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.EmbedBatchSize {
		end := start + e.cfg.EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		res, err := e.embedder.BatchEmbed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors: %w",
				start, end, len(res.Embeddings), domain.ErrEmbeddingProviderError)
		}
		vectors = append(vectors, res.Embeddings...)
	}
	return vectors, nil
}

// Search ranks the indexed catalog against the query. It is a pure read
// over the current snapshot: not-ready engines, impossible filters, and
// gated-out corpora all yield an empty result list, never an error.
func (e *Engine) Search(ctx context.Context, q query.Query) []result.Result {
	mode := q.Mode
	if mode == "" {
		mode = query.ModeRRF
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	snap := e.snap.Load()
	if snap == nil || q.Filters.Impossible() {
		metrics.SearchRequestsTotal.WithLabelValues(string(mode), "empty").Inc()
		return nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	n := snap.lexical.Len()
	qTokens := token.Tokenize(q.Text)

	var bm25Raw, sem []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bm25Raw = snap.lexical.Score(qTokens)
		return nil
	})
	g.Go(func() error {
		sem = e.semanticScores(gctx, snap, q.Text, n)
		return nil
	})
	_ = g.Wait()

	bm25Norm := lexical.Normalize(bm25Raw)
	for i := range sem {
		if sem[i] < 0 {
			sem[i] = 0
		} else if sem[i] > 1 {
			sem[i] = 1
		}
	}

	var fused []float64
	switch mode {
	case query.ModeWeighted:
		fused = fuseWeighted(bm25Norm, sem, e.cfg.FusionAlpha)
	default:
		fused = fuseRRF(bm25Raw, sem, e.cfg.RRFConstant)
	}

	qLower := strings.ToLower(q.Text)
	cands := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !allowedByRules(e.rules, qLower, snap.textsLower[i]) {
			continue
		}
		if bm25Norm[i] < e.cfg.MinBM25 && sem[i] < e.cfg.MinSemantic {
			continue
		}
		if !q.Filters.Match(&snap.products[i]) {
			continue
		}
		cands = append(cands, i)
	}

	sort.Slice(cands, func(a, b int) bool {
		if fused[cands[a]] != fused[cands[b]] {
			return fused[cands[a]] > fused[cands[b]]
		}
		return cands[a] < cands[b]
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}

	results := make([]result.Result, len(cands))
	for i, pos := range cands {
		results[i] = result.Result{
			Product:  snap.products[pos],
			Score:    fused[pos],
			BM25Norm: bm25Norm[pos],
			Semantic: sem[pos],
		}
	}

	outcome := "results"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(mode), outcome).Inc()
	return results
}

// semanticScores returns the dense similarity vector, or zeros when the
// semantic path is unavailable. Per-call failures are logged and contained;
// they never abort the search.
func (e *Engine) semanticScores(ctx context.Context, snap *snapshot, queryText string, n int) []float64 {
	if snap.semantic == nil {
		return make([]float64, n)
	}
	scores, err := snap.semantic.Score(ctx, queryText)
	if err != nil {
		e.logger.Warn("semantic scoring failed, using zero scores", zap.Error(err))
		return make([]float64, n)
	}
	if len(scores) != n {
		e.logger.Warn("semantic score vector misaligned",
			zap.Int("got", len(scores)), zap.Int("want", n))
		return make([]float64, n)
	}
	return scores
}

// Health reports the engine state for the health endpoint.
func (e *Engine) Health(ctx context.Context) Report {
	r := Report{
		VectorBackend:  semantic.KindNone,
		FusionConstant: e.cfg.RRFConstant,
		FusionAlpha:    e.cfg.FusionAlpha,
		MinBM25:        e.cfg.MinBM25,
		MinSemantic:    e.cfg.MinSemantic,
	}

	if hc, ok := e.embedder.(domain.HealthChecker); ok {
		reachable := hc.HealthCheck(ctx) == nil
		r.EmbedderReachable = &reachable
	}

	snap := e.snap.Load()
	if snap == nil {
		return r
	}

	r.Ready = true
	r.ProductsIndexed = len(snap.products)
	r.BM25Ready = true
	if snap.semantic != nil {
		r.VectorBackend = snap.semantic.Kind()
		stats := snap.semantic.Stats()
		r.Backend = &stats
	}
	return r
}
