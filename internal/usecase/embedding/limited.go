package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/jamesbell/askjames/internal/domain"
)

// DefaultMaxInflight is the default upstream concurrency ceiling.
const DefaultMaxInflight = 8

// LimitedEmbedder bounds concurrent upstream calls with a weighted semaphore
// to respect provider rate limits. No exclusive lock is held while a call is
// in flight; up to maxInflight requests proceed in parallel and the rest
// wait, honoring context cancellation.
type LimitedEmbedder struct {
	inner domain.Embedder
	sem   *semaphore.Weighted
}

// NewLimited creates a concurrency-limiting decorator. maxInflight <= 0
// falls back to DefaultMaxInflight.
func NewLimited(inner domain.Embedder, maxInflight int) *LimitedEmbedder {
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflight
	}
	return &LimitedEmbedder{inner: inner, sem: semaphore.NewWeighted(int64(maxInflight))}
}

// Embed acquires a slot and delegates to the inner embedder.
func (l *LimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("acquire embed slot: %w", err)
	}
	defer l.sem.Release(1)

	return l.inner.Embed(ctx, text)
}

// BatchEmbed acquires a single slot for the whole batch.
func (l *LimitedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("acquire embed slot: %w", err)
	}
	defer l.sem.Release(1)

	if be, ok := l.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, l.inner, texts)
}
