// Package match selects the best knowledge base entry for a query vector
// and applies the acceptance threshold.
package match

import (
	"fmt"

	"github.com/jamesbell/askjames/internal/domain"
	dommatch "github.com/jamesbell/askjames/internal/domain/match"
	"github.com/jamesbell/askjames/internal/domain/vector"
)

// Service scores a query vector against every stored entry. A linear scan is
// correct and sufficient at this dataset size (tens of entries); no index.
type Service struct {
	store     EntrySource
	threshold float64
}

// New creates a matcher. The threshold must lie in [-1, 1]; anything else is
// a configuration error.
func New(store EntrySource, threshold float64) (*Service, error) {
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold %v outside [-1, 1]",
			domain.ErrConfig, threshold)
	}
	return &Service{store: store, threshold: threshold}, nil
}

// Threshold returns the configured acceptance threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// Match computes cosine similarity between queryVec and every entry and
// returns the best candidate. Ties break toward the lowest entry id, so the
// result is deterministic for identical inputs. The candidate is accepted
// only when its score reaches the threshold.
func (s *Service) Match(queryVec []float32) (dommatch.Result, error) {
	entries := s.store.Entries()
	if len(entries) == 0 {
		return dommatch.Result{}, fmt.Errorf("%w: knowledge base is empty", domain.ErrDataInvalid)
	}

	bestIdx := -1
	bestScore := 0.0
	for i := range entries {
		score, err := vector.Cosine(queryVec, entries[i].Embedding())
		if err != nil {
			// Dimensionality drift between query and store means the embedding
			// spaces diverged: a configuration fault, not a retryable one.
			return dommatch.Result{}, fmt.Errorf("%w: entry %s: %v",
				domain.ErrConfig, entries[i].ID(), err)
		}

		if bestIdx < 0 || score > bestScore ||
			(score == bestScore && entries[i].ID() < entries[bestIdx].ID()) {
			bestIdx = i
			bestScore = score
		}
	}

	best := entries[bestIdx]
	return dommatch.New(best, bestScore, bestScore >= s.threshold), nil
}
