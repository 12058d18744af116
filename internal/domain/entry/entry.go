// Package entry defines the curated question/answer pair the knowledge base
// is built from.
package entry

import "fmt"

// Entry is a curated Q&A pair with its precomputed embedding
// (immutable value object).
type Entry struct {
	id        string
	question  string
	answer    string
	embedding []float32
}

// New validates and creates an Entry. The embedding may be nil when it is
// computed later, at dataset load time.
func New(id, question, answer string, embedding []float32) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("entry ID is required")
	}
	if question == "" {
		return Entry{}, fmt.Errorf("entry %s: question is required", id)
	}
	if answer == "" {
		return Entry{}, fmt.Errorf("entry %s: answer is required", id)
	}
	return Entry{id: id, question: question, answer: answer, embedding: embedding}, nil
}

// Reconstruct creates an Entry without validation (dataset hydration).
func Reconstruct(id, question, answer string, embedding []float32) Entry {
	return Entry{id: id, question: question, answer: answer, embedding: embedding}
}

// Accessors take value receivers so they can be called directly on values
// returned from other accessors, such as a match result's Entry().

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Question returns the curated question text.
func (e Entry) Question() string { return e.question }

// Answer returns the curated answer text.
func (e Entry) Answer() string { return e.answer }

// Embedding returns the embedding vector, nil if not yet computed.
func (e Entry) Embedding() []float32 { return e.embedding }

// HasEmbedding reports whether the entry carries an embedding.
func (e Entry) HasEmbedding() bool { return len(e.embedding) > 0 }

// Corpus returns the text the embedding is computed over. Question and answer
// are embedded together so a query can land on either side of the pair.
func (e Entry) Corpus() string {
	return fmt.Sprintf("Q: %s\nA: %s", e.question, e.answer)
}

// WithEmbedding returns a copy with the given embedding set.
func (e Entry) WithEmbedding(v []float32) Entry {
	return Entry{id: e.id, question: e.question, answer: e.answer, embedding: v}
}
