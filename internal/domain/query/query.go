// Package query defines the validated, normalized per-request question.
package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jamesbell/askjames/internal/domain"
)

// DefaultMaxLen is the default query length ceiling in runes.
const DefaultMaxLen = 1000

// Query is the per-request question (immutable value object). Created per
// request, discarded after the response; never persisted.
type Query struct {
	raw        string
	normalized string
}

// New validates raw text and creates a Query. maxLen <= 0 falls back to
// DefaultMaxLen. Whitespace runs are collapsed and the text is lowercased
// before embedding to improve match stability.
func New(raw string, maxLen int) (Query, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	normalized := Normalize(raw)
	if normalized == "" {
		return Query{}, fmt.Errorf("%w: query text is empty", domain.ErrValidation)
	}
	if n := utf8.RuneCountInString(normalized); n > maxLen {
		return Query{}, fmt.Errorf("%w: query text too long (%d runes, max %d)",
			domain.ErrValidation, n, maxLen)
	}

	return Query{raw: raw, normalized: normalized}, nil
}

// Normalize collapses whitespace runs to single spaces, trims the ends, and
// lowercases the text.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Raw returns the query text as received.
func (q *Query) Raw() string { return q.raw }

// Normalized returns the whitespace-collapsed, lowercased text used for embedding.
func (q *Query) Normalized() string { return q.normalized }
