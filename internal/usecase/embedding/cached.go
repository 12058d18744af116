// Package embedding decorates the base embedding provider with caching,
// a concurrency ceiling, and observability.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamesbell/askjames/internal/domain"
)

// CachedEmbedder keeps embeddings in process memory. The dataset is small
// and recruiters ask the same handful of questions, so a plain map with no
// eviction is enough; the cache lives and dies with the process.
type CachedEmbedder struct {
	inner      domain.Embedder
	model      string
	mu         sync.RWMutex
	vectors    map[string][]float32
	cacheTotal *prometheus.CounterVec
}

var _ domain.BatchEmbedder = (*CachedEmbedder)(nil)

// NewCached creates a caching decorator. cacheTotal is a counter vec with
// label "result" ("hit"/"miss"); it may be nil in tests.
func NewCached(inner domain.Embedder, model string, cacheTotal *prometheus.CounterVec) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		model:      model,
		vectors:    make(map[string][]float32),
		cacheTotal: cacheTotal,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	c.mu.RLock()
	vec, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.mu.Lock()
	c.vectors[key] = result.Embedding
	c.mu.Unlock()

	return result, nil
}

// BatchEmbed serves cached texts from memory and sends only the misses to
// the inner embedder in one call, so batch consumers keep their batching
// through this decorator.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var misses []int

	c.mu.RLock()
	for i, text := range texts {
		if vec, ok := c.vectors[c.cacheKey(text)]; ok {
			embeddings[i] = vec
		} else {
			misses = append(misses, i)
		}
	}
	c.mu.RUnlock()

	c.addCache("hit", len(texts)-len(misses))
	c.addCache("miss", len(misses))

	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	missTexts := make([]string, len(misses))
	for i, idx := range misses {
		missTexts[i] = texts[idx]
	}

	res, err := c.embedBatch(ctx, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed texts: %w", err)
	}
	if len(res.Embeddings) != len(misses) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d inputs",
			domain.ErrEmbeddingProvider, len(res.Embeddings), len(misses))
	}

	c.mu.Lock()
	for i, idx := range misses {
		embeddings[idx] = res.Embeddings[i]
		c.vectors[c.cacheKey(texts[idx])] = res.Embeddings[i]
	}
	c.mu.Unlock()

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, c.inner, texts)
}

// cacheKey includes the model so a redeploy with a new embedding model never
// serves vectors from the old space.
func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) incCache(result string) {
	c.addCache(result, 1)
}

func (c *CachedEmbedder) addCache(result string, n int) {
	if c.cacheTotal != nil && n > 0 {
		c.cacheTotal.WithLabelValues(result).Add(float64(n))
	}
}
