package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shoppilot/prosearch/internal/config"
	"github.com/shoppilot/prosearch/internal/db"
	dbRedis "github.com/shoppilot/prosearch/internal/db/redis"
	"github.com/shoppilot/prosearch/internal/domain"
	"github.com/shoppilot/prosearch/internal/index/semantic"
	logpkg "github.com/shoppilot/prosearch/internal/logger"
	"github.com/shoppilot/prosearch/internal/metrics"
	catalogrepo "github.com/shoppilot/prosearch/internal/repository/catalog"
	"github.com/shoppilot/prosearch/internal/repository/embcache"
	vectorrepo "github.com/shoppilot/prosearch/internal/repository/vector"
	chiTransport "github.com/shoppilot/prosearch/internal/transport/chi"
	openaiEmb "github.com/shoppilot/prosearch/internal/transport/openai"
	"github.com/shoppilot/prosearch/internal/usecase/engine"
	"github.com/shoppilot/prosearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting prosearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.Path),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	metrics.Register()

	// Vector store is optional: without it the semantic index stays in memory.
	store := connectStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	// Pass nil interface (not typed nil pointer!) when no store is connected.
	// Go gotcha: (*redis.Store)(nil) wrapped in db.Store != nil.
	var storeIface db.Store
	if store != nil {
		storeIface = store
	}

	// Embedder is optional: without it the engine serves lexical-only results.
	embedder := buildEmbedder(cfg, storeIface, logger)

	source := catalogrepo.NewFileSource(cfg.Catalog.Path)

	engCfg := engine.Config{
		RRFConstant:    cfg.Engine.RRFConstant,
		FusionAlpha:    *cfg.Engine.FusionAlpha,
		MinBM25:        *cfg.Engine.MinBM25,
		MinSemantic:    *cfg.Engine.MinSemantic,
		DefaultLimit:   cfg.Engine.DefaultLimit,
		MaxLimit:       cfg.Engine.MaxLimit,
		EmbedBatchSize: cfg.Engine.EmbedBatchSize,
		EmbedModel:     cfg.Embedding.Model,
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if len(cfg.Engine.Rules) > 0 {
		rules := engine.DefaultRules()
		for _, r := range cfg.Engine.Rules {
			rules = append(rules, engine.Rule{
				Name:     r.Name,
				Triggers: r.Triggers,
				Required: r.Required,
				Excluded: r.Excluded,
			})
		}
		opts = append(opts, engine.WithRules(rules))
	}
	if embedder != nil {
		opts = append(opts, engine.WithEmbedder(embedder))
	}
	if store != nil {
		var vs semantic.VectorStore = vectorrepo.New(store, cfg.Storage.IndexName, cfg.Storage.KeyPrefix)
		opts = append(opts, engine.WithVectorStore(vs))
	}

	eng := engine.New(engCfg, source, opts...)

	initCtx, cancelInit := context.WithTimeout(
		context.Background(), time.Duration(cfg.Engine.InitTimeoutSec)*time.Second)
	report, err := eng.Initialize(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to build search index", zap.Error(err))
	}
	logger.Info("Search index ready",
		zap.String("status", string(report.Status)),
		zap.Int("products", report.ProductCount),
		zap.String("vector_backend", report.VectorBackend),
	)

	server := chiTransport.NewServer(eng, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// connectStore connects to the vector database if one is configured. An
// unreachable database is not fatal: the engine degrades to the in-memory
// semantic backend.
func connectStore(cfg config.Config, logger *zap.Logger) *dbRedis.Store {
	if len(cfg.Database.Addrs) == 0 {
		logger.Info("No database configured, semantic index will stay in memory")
		return nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Warn("Failed to create database store, falling back to in-memory semantic index",
			zap.Error(err))
		return nil
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Warn("Database not ready, falling back to in-memory semantic index", zap.Error(err))
		store.Close()
		return nil
	}

	logger.Info("Connected to database")
	return store
}

// buildEmbedder assembles the embedder chain: OpenAI -> Cached.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.APIKey == "" {
		logger.Warn("No embedding API key configured, serving lexical-only results")
		return nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	if store == nil {
		return base
	}
	ttl := time.Duration(cfg.Embedding.CacheTTL) * time.Second
	return embcache.New(base, store, ttl, metrics.EmbeddingCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
