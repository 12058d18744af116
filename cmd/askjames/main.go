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
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/config"
	"github.com/jamesbell/askjames/internal/domain"
	"github.com/jamesbell/askjames/internal/knowledge"
	logpkg "github.com/jamesbell/askjames/internal/logger"
	"github.com/jamesbell/askjames/internal/metrics"
	chiTransport "github.com/jamesbell/askjames/internal/transport/chi"
	openaiTransport "github.com/jamesbell/askjames/internal/transport/openai"
	answeruc "github.com/jamesbell/askjames/internal/usecase/answer"
	embeddinguc "github.com/jamesbell/askjames/internal/usecase/embedding"
	healthuc "github.com/jamesbell/askjames/internal/usecase/health"
	matchuc "github.com/jamesbell/askjames/internal/usecase/match"
	"github.com/jamesbell/askjames/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askjames API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Bool("phrasing_enabled", cfg.Phrasing.Enabled),
	)

	// Register bot metrics explicitly (no init())
	metrics.RegisterBotMetrics()

	embedder := buildEmbedder(cfg.Embedding, logger)

	// Load the knowledge base up-front. The store is frozen after this:
	// a dataset or embedding-space problem stops the process here.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 5*time.Minute)
	store, err := knowledge.Load(loadCtx, cfg.Retrieval.DatasetPath, cfg.Embedding.Model, embedder)
	cancelLoad()
	if err != nil {
		logger.Fatal("Failed to load knowledge base", zap.Error(err))
	}
	logger.Info("Knowledge base loaded",
		zap.Int("entries", store.Len()),
		zap.Int("dimensions", store.Dimensions()),
	)

	matcher, err := matchuc.New(store, cfg.Retrieval.SimilarityThreshold)
	if err != nil {
		logger.Fatal("Failed to create matcher", zap.Error(err))
	}

	var phraser answeruc.Phraser
	var providerCheck domain.HealthChecker
	base := openaiTransport.NewPhraser(&openaiTransport.PhraserConfig{
		APIKey:       cfg.Embedding.APIKey,
		BaseURL:      cfg.Embedding.BaseURL,
		Model:        cfg.Phrasing.Model,
		SystemPrompt: cfg.Phrasing.SystemPrompt,
		Temperature:  cfg.Phrasing.Temperature,
		TopP:         cfg.Phrasing.TopP,
		MaxTokens:    cfg.Phrasing.MaxTokens,
		Logger:       logger,
	})
	providerCheck = base
	if cfg.Phrasing.Enabled {
		phraser = base
	}

	answerSvc, err := answeruc.New(embedder, matcher, phraser, answeruc.Config{
		RedirectMessage: cfg.Bot.RedirectMessage,
		MaxQueryLen:     cfg.Retrieval.MaxQueryLen,
		EmbedTimeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		PhraseTimeout:   time.Duration(cfg.Phrasing.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create answer service", zap.Error(err))
	}

	healthSvc := healthuc.New(store, providerCheck)

	server := chiTransport.NewServer(answerSvc, healthSvc, cfg.Bot.UnavailableMessage, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
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

// buildEmbedder assembles the decorator chain: OpenAI -> Limited -> Cached -> Instrumented.
// Limited sits innermost so cache hits never wait on the inflight semaphore.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Logger:     logger,
	})

	limited := embeddinguc.NewLimited(base, cfg.MaxInflight)
	cached := embeddinguc.NewCached(limited, cfg.Model, metrics.EmbeddingCacheTotal)

	return embeddinguc.NewInstrumented(cached, cfg.Model, logger)
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
