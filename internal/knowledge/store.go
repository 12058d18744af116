// Package knowledge loads the curated Q&A dataset and serves it as an
// immutable in-process knowledge base.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesbell/askjames/internal/domain"
	"github.com/jamesbell/askjames/internal/domain/entry"
)

// loadBatchSize caps how many corpus texts go into one embedding API call.
const loadBatchSize = 64

// Store is the frozen set of Q&A entries. Safe for unlimited concurrent
// readers: it is never mutated after Load returns.
type Store struct {
	entries []entry.Entry
	byID    map[string]int
	dims    int
	model   string
}

// Load reads the dataset file, assigns missing ids, embeds entries that lack
// an embedding (via embed, which may be nil when every entry already carries
// one), and freezes the result. Load is idempotent: loading the same file
// with the same embedding model yields the same store.
//
// Malformed or empty datasets fail with domain.ErrDataInvalid. Mixed
// embedding dimensionality or a dataset stamped with a different embedding
// model fails with domain.ErrConfig. Both are fatal at startup: the process
// must refuse to serve rather than run with an undefined match quality.
func Load(ctx context.Context, path, model string, embed domain.Embedder) (*Store, error) {
	records, fileModel, err := readDataset(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset %s has no entries", domain.ErrDataInvalid, path)
	}

	if fileModel != "" && model != "" && fileModel != model {
		return nil, fmt.Errorf(
			"%w: dataset embeddings computed with model %q, configured model is %q",
			domain.ErrConfig, fileModel, model,
		)
	}

	entries, err := buildEntries(records)
	if err != nil {
		return nil, err
	}

	if err := embedMissing(ctx, entries, embed); err != nil {
		return nil, err
	}

	dims, err := uniformDimensions(entries)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(entries))
	for i := range entries {
		id := entries[i].ID()
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate entry id %q", domain.ErrDataInvalid, id)
		}
		byID[id] = i
	}

	return &Store{entries: entries, byID: byID, dims: dims, model: model}, nil
}

// Entries returns all entries in load order. Callers must not modify the slice.
func (s *Store) Entries() []entry.Entry { return s.entries }

// Get returns the entry with the given id. O(1).
func (s *Store) Get(id string) (entry.Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return entry.Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Dimensions returns the embedding dimensionality shared by all entries.
func (s *Store) Dimensions() int { return s.dims }

// Model returns the embedding model the store was loaded for.
func (s *Store) Model() string { return s.model }

// record is the on-disk shape of one dataset entry.
type record struct {
	ID        string    `json:"id,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// datasetFile is the wrapped on-disk dataset shape.
type datasetFile struct {
	Model               string   `json:"model,omitempty"`
	QuestionsAndAnswers []record `json:"questions_and_answers"`
}

// readDataset decodes the dataset file. Both a bare JSON array of records and
// the wrapped {"questions_and_answers": [...]} form are accepted.
func readDataset(path string) ([]record, string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read dataset %s: %v", domain.ErrDataInvalid, path, err)
	}

	var bare []record
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, "", nil
	}

	var wrapped datasetFile
	if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.QuestionsAndAnswers == nil {
		return nil, "", fmt.Errorf("%w: dataset %s is neither a record array nor a questions_and_answers object", //nolint:lll
			domain.ErrDataInvalid, path)
	}
	return wrapped.QuestionsAndAnswers, wrapped.Model, nil
}

// buildEntries validates records and assigns positional ids where missing.
func buildEntries(records []record) ([]entry.Entry, error) {
	entries := make([]entry.Entry, len(records))
	for i, r := range records {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("qa-%04d", i+1)
		}
		e, err := entry.New(id, r.Question, r.Answer, r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrDataInvalid, i, err)
		}
		entries[i] = e
	}
	return entries, nil
}

// embedMissing fills in embeddings for entries that lack one, in batches.
func embedMissing(ctx context.Context, entries []entry.Entry, embed domain.Embedder) error {
	var missing []int
	for i := range entries {
		if !entries[i].HasEmbedding() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if embed == nil {
		return fmt.Errorf("%w: %d entries lack embeddings and no embedder is configured",
			domain.ErrDataInvalid, len(missing))
	}

	for offset := 0; offset < len(missing); offset += loadBatchSize {
		end := min(offset+loadBatchSize, len(missing))
		chunk := missing[offset:end]

		texts := make([]string, len(chunk))
		for i, idx := range chunk {
			texts[i] = entries[idx].Corpus()
		}

		res, err := batchEmbed(ctx, embed, texts)
		if err != nil {
			return fmt.Errorf("embed dataset chunk at %d: %w", offset, err)
		}
		if len(res.Embeddings) != len(chunk) {
			return fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrEmbeddingProvider, len(res.Embeddings), len(chunk))
		}
		for i, idx := range chunk {
			entries[idx] = entries[idx].WithEmbedding(res.Embeddings[i])
		}
	}
	return nil
}

func batchEmbed(ctx context.Context, embed domain.Embedder, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, embed, texts)
}

// uniformDimensions verifies every entry shares one embedding dimensionality.
func uniformDimensions(entries []entry.Entry) (int, error) {
	dims := len(entries[0].Embedding())
	if dims == 0 {
		return 0, fmt.Errorf("%w: entry %s has an empty embedding", domain.ErrConfig, entries[0].ID())
	}
	for i := range entries {
		if d := len(entries[i].Embedding()); d != dims {
			return 0, fmt.Errorf("%w: entry %s has dimensionality %d, expected %d",
				domain.ErrConfig, entries[i].ID(), d, dims)
		}
	}
	return dims, nil
}

// WriteFile writes entries (with embeddings) to path in the wrapped dataset
// form, stamped with the embedding model. Used by the offline dataset tool.
func WriteFile(path, model string, entries []entry.Entry) error {
	records := make([]record, len(entries))
	for i := range entries {
		records[i] = record{
			ID:        entries[i].ID(),
			Question:  entries[i].Question(),
			Answer:    entries[i].Answer(),
			Embedding: entries[i].Embedding(),
		}
	}

	data, err := json.MarshalIndent(datasetFile{Model: model, QuestionsAndAnswers: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}
