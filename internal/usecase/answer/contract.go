package answer

import (
	"context"

	"github.com/jamesbell/askjames/internal/domain"
	dommatch "github.com/jamesbell/askjames/internal/domain/match"
)

// Embedder vectorizes the normalized query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Matcher scores a query vector against the knowledge base.
type Matcher interface {
	Match(queryVec []float32) (dommatch.Result, error)
}

// Phraser rewrites an answer for tone, constrained to the grounding text.
// Implementations must not introduce facts absent from grounding.
type Phraser interface {
	Phrase(ctx context.Context, question, grounding string) (string, error)
}
