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

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/config"
	"github.com/nutriplate/nutriplate/internal/db"
	dbRedis "github.com/nutriplate/nutriplate/internal/db/redis"
	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/domain/tracking"
	logpkg "github.com/nutriplate/nutriplate/internal/logger"
	"github.com/nutriplate/nutriplate/internal/metrics"
	"github.com/nutriplate/nutriplate/internal/repository/embcache"
	reciperepo "github.com/nutriplate/nutriplate/internal/repository/recipe"
	"github.com/nutriplate/nutriplate/internal/repository/record"
	"github.com/nutriplate/nutriplate/internal/repository/vector"
	chiTransport "github.com/nutriplate/nutriplate/internal/transport/chi"
	"github.com/nutriplate/nutriplate/internal/transport/ollama"
	openaiEmb "github.com/nutriplate/nutriplate/internal/transport/openai"
	cataloguc "github.com/nutriplate/nutriplate/internal/usecase/catalog"
	embeddinguc "github.com/nutriplate/nutriplate/internal/usecase/embedding"
	healthuc "github.com/nutriplate/nutriplate/internal/usecase/health"
	"github.com/nutriplate/nutriplate/internal/usecase/rag"
	"github.com/nutriplate/nutriplate/internal/usecase/recipegen"
	trackinguc "github.com/nutriplate/nutriplate/internal/usecase/tracking"
	"github.com/nutriplate/nutriplate/internal/version"
)

func main() {
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

	logger.Info("Starting nutriplate API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("ollama_host", cfg.Generation.Host),
		zap.String("text_model", cfg.Generation.TextModel),
		zap.String("vision_model", cfg.Generation.VisionModel),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	embedder := buildEmbedder(cfg.Embedding, store, cfg.Storage.KeyPrefix, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	llm, err := ollama.NewClient(ollama.Config{
		Host:          cfg.Generation.Host,
		TextModel:     cfg.Generation.TextModel,
		VisionModel:   cfg.Generation.VisionModel,
		TextTimeout:   time.Duration(cfg.Generation.TextTimeoutSec) * time.Second,
		VisionTimeout: time.Duration(cfg.Generation.VisionTimeoutSec) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}

	// Use cases
	knowledge := vector.New(embedder, cfg.Embedding.Dimensions)
	ragSvc := rag.New(knowledge, llm, cfg.RAG.TopK, logger).WithMaxK(cfg.RAG.MaxK)

	catalogSvc := cataloguc.New(reciperepo.New(store, cfg.Storage.KeyPrefix)).
		WithPagination(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	generatorSvc := recipegen.New(llm, llm, ragSvc, catalogSvc).
		WithTemperature(cfg.Generation.Temperature)

	records := buildRecords(store, cfg.Storage.KeyPrefix, catalogSvc)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder), llm)

	go seedKnowledge(ctx, ragSvc, cfg.RAG, logger)

	server := chiTransport.NewServer(chiTransport.Deps{
		Assistant: ragSvc,
		Generator: generatorSvc,
		Catalog:   catalogSvc,
		Health:    healthSvc,
		Records:   records,
	}, logger).WithMaxUpload(cfg.HTTP.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Tokens))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI-compatible -> Cached -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, prefix string, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache {
		embedder = embcache.New(base, store, cfg.Model, metrics.EmbeddingCacheTotal, logger,
			embcache.WithKeyPrefix(prefix),
			embcache.WithTTL(time.Duration(cfg.CacheTTLHours)*time.Hour),
		)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.MaxBatchSize, logger).
		WithDimensions(cfg.Dimensions)
}

// buildRecords wires the five user-owned record kinds to their routes.
func buildRecords(store db.Store, prefix string, recipes trackinguc.RecipeChecker) []chiTransport.RecordRoutes {
	return []chiTransport.RecordRoutes{
		recordRoutes("/api/favorites", tracking.KindFavorite, store, prefix, recipes,
			func() *tracking.Favorite { return &tracking.Favorite{} }),
		recordRoutes("/api/history", tracking.KindHistory, store, prefix, recipes,
			func() *tracking.HistoryEntry { return &tracking.HistoryEntry{} }),
		recordRoutes("/api/profile", tracking.KindProfile, store, prefix, nil,
			func() *tracking.Profile { return &tracking.Profile{} }),
		recordRoutes("/api/health", tracking.KindHealth, store, prefix, nil,
			func() *tracking.HealthData { return &tracking.HealthData{} }),
		recordRoutes("/api/wearable", tracking.KindWearable, store, prefix, nil,
			func() *tracking.WearableReading { return &tracking.WearableReading{} }),
	}
}

func recordRoutes[R tracking.Record](
	pattern string,
	kind tracking.Kind,
	store db.Store,
	prefix string,
	recipes trackinguc.RecipeChecker,
	newFn func() R,
) chiTransport.RecordRoutes {
	svc := trackinguc.New[R](kind, record.New[R](store, prefix, kind, newFn), recipes)
	return chiTransport.Records[R](pattern, svc, newFn)
}

// seedKnowledge loads the configured documents once the embedding model answers.
func seedKnowledge(ctx context.Context, svc *rag.Service, cfg config.RAGConfig, logger *zap.Logger) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Duration(cfg.SeedMaxWait) * time.Second

	if err := svc.Seed(ctx, cfg.SeedDocuments, b); err != nil {
		logger.Error("Knowledge base seeding gave up", zap.Error(err))
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.Checker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
