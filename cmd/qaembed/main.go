// Command qaembed embeds a Q&A dataset offline and writes it back with
// vectors and a model stamp, so the API server can start without calling the
// embedding provider for the whole dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/knowledge"
	logpkg "github.com/jamesbell/askjames/internal/logger"
	"github.com/jamesbell/askjames/internal/metrics"
	openaiTransport "github.com/jamesbell/askjames/internal/transport/openai"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "qaembed:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		in      = flag.String("in", "data/qa.json", "input dataset path")
		out     = flag.String("out", "", "output path (default: overwrite input)")
		model   = flag.String("model", "text-embedding-3-large", "embedding model")
		baseURL = flag.String("base-url", "", "provider base URL override")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall embedding timeout")
	)
	flag.Parse()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if *out == "" {
		*out = *in
	}

	logger, err := logpkg.New("local", "info")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterBotMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:  apiKey,
		BaseURL: *baseURL,
		Model:   *model,
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := knowledge.Load(ctx, *in, *model, embedder)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	if err := knowledge.WriteFile(*out, *model, store.Entries()); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	logger.Info("Dataset embedded",
		zap.String("in", *in),
		zap.String("out", *out),
		zap.String("model", *model),
		zap.Int("entries", store.Len()),
		zap.Int("dimensions", store.Dimensions()),
	)
	return nil
}
