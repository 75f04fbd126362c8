// Package chi exposes the retrieval engine over HTTP.
package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoppilot/prosearch/internal/domain/catalog"
	"github.com/shoppilot/prosearch/internal/domain/query"
	"github.com/shoppilot/prosearch/internal/domain/result"
	"github.com/shoppilot/prosearch/internal/usecase/engine"
)

// Error codes returned in the JSON error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeReindexFailed    = "reindex_failed"
)

// Server routes HTTP requests to the engine.
type Server struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(eng *engine.Engine, logger *zap.Logger) *Server {
	return &Server{engine: eng, logger: logger}
}

// Routes mounts the API on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.Search)
	r.Post("/v1/reindex", s.Reindex)
	r.Get("/v1/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchRequest is the POST /v1/search body.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Category  string   `json:"category,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
}

// SearchResultItem is one ranked product in the response.
type SearchResultItem struct {
	Product       catalog.Product `json:"product"`
	Score         float64         `json:"score"`
	BM25Score     float64         `json:"bm25_score"`
	SemanticScore float64         `json:"semantic_score"`
}

// SearchResponse is the POST /v1/search response.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// An empty query is valid: the engine serves it from the semantic path,
	// or returns nothing when running lexical-only.
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must not be negative")
		return
	}

	q, err := query.New(req.Query, req.Limit, req.Mode, query.Filters{
		Category:  req.Category,
		Brand:     req.Brand,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		MinRating: req.MinRating,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results := s.engine.Search(r.Context(), q)

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Items: items,
		Total: len(items),
	})
}

// Reindex handles POST /v1/reindex. It rebuilds every index from the catalog
// source and swaps the result in atomically; in-flight searches keep serving
// the previous snapshot.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Initialize(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeReindexFailed, "failed to rebuild index")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /v1/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.engine.Health(r.Context())

	httpStatus := http.StatusOK
	if !report.Ready {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func resultToItem(res *result.Result) SearchResultItem {
	return SearchResultItem{
		Product:       res.Product,
		Score:         res.Score,
		BM25Score:     res.BM25Norm,
		SemanticScore: res.Semantic,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
