// Package match defines the matcher's derived result value.
package match

import "github.com/jamesbell/askjames/internal/domain/entry"

// Result is the outcome of matching a query vector against the knowledge
// base (derived value, never stored). The best-scoring entry is always
// carried; Accepted reports whether its score cleared the threshold.
type Result struct {
	entry    entry.Entry
	score    float64
	accepted bool
}

// New creates a Result.
func New(e entry.Entry, score float64, accepted bool) Result {
	return Result{entry: e, score: score, accepted: accepted}
}

// Entry returns the best-scoring knowledge base entry.
func (r *Result) Entry() entry.Entry { return r.entry }

// Score returns the cosine similarity of the best entry, in [-1, 1].
func (r *Result) Score() float64 { return r.score }

// Accepted reports whether the score met the acceptance threshold.
func (r *Result) Accepted() bool { return r.accepted }
