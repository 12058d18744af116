package match

import (
	"errors"
	"math"
	"testing"

	"github.com/jamesbell/askjames/internal/domain"
	"github.com/jamesbell/askjames/internal/domain/entry"
)

// --- Mocks ---

type mockStore struct {
	entries []entry.Entry
	dims    int
}

func (m *mockStore) Entries() []entry.Entry { return m.entries }
func (m *mockStore) Dimensions() int        { return m.dims }

func storeOf(t *testing.T, entries ...entry.Entry) *mockStore {
	t.Helper()
	dims := 0
	if len(entries) > 0 {
		dims = len(entries[0].Embedding())
	}
	return &mockStore{entries: entries, dims: dims}
}

// --- Tests ---

func TestNew_ThresholdOutOfRange(t *testing.T) {
	for _, th := range []float64{-1.5, 1.01, 2} {
		if _, err := New(&mockStore{}, th); !errors.Is(err, domain.ErrConfig) {
			t.Errorf("threshold %v: got %v, want ErrConfig", th, err)
		}
	}
}

func TestMatch_SelectsBestEntry(t *testing.T) {
	store := storeOf(t,
		entry.Reconstruct("role", "role?", "engineer", []float32{1, 0}),
		entry.Reconstruct("home", "home?", "denver", []float32{0, 1}),
	)
	svc, err := New(store, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := svc.Match([]float32{0.9, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Entry(); got.ID() != "role" {
		t.Errorf("best entry: got %s, want role", got.ID())
	}
	if !res.Accepted() {
		t.Error("expected acceptance above threshold")
	}
}

func TestMatch_ExactEmbeddingAlwaysAccepted(t *testing.T) {
	// A query embedding equal to a stored one scores 1.0 and is accepted
	// for any threshold <= 1.0, including the maximum.
	stored := []float32{0.25, -0.5, 0.75}
	store := storeOf(t,
		entry.Reconstruct("a", "q", "a", []float32{-1, 0, 0}),
		entry.Reconstruct("b", "q", "a", stored),
	)
	svc, err := New(store, 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := svc.Match(stored)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Entry().ID() != "b" {
		t.Errorf("best entry: got %s, want b", res.Entry().ID())
	}
	if !res.Accepted() {
		t.Error("exact embedding must be accepted at threshold 1.0")
	}
}

func TestMatch_BelowThresholdRejected(t *testing.T) {
	store := storeOf(t, entry.Reconstruct("only", "q", "a", []float32{1, 0}))
	svc, err := New(store, 0.75)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// ~0.41 similarity against threshold 0.75.
	res, err := svc.Match([]float32{0.41, 0.91})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accepted() {
		t.Errorf("score %v should not clear threshold 0.75", res.Score())
	}
	// The best candidate is still reported alongside the rejection.
	if res.Entry().ID() != "only" {
		t.Errorf("best entry: got %s, want only", res.Entry().ID())
	}
}

func TestMatch_TieBreaksOnLowestID(t *testing.T) {
	// Same embedding on both entries: the tie must resolve to the lowest id,
	// regardless of store order.
	vec := []float32{0.6, 0.8}
	store := storeOf(t,
		entry.Reconstruct("zz", "q", "a", vec),
		entry.Reconstruct("aa", "q", "a", vec),
	)
	svc, err := New(store, 0.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := svc.Match(vec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Entry().ID() != "aa" {
		t.Errorf("tie break: got %s, want aa", res.Entry().ID())
	}
}

func TestMatch_Deterministic(t *testing.T) {
	store := storeOf(t,
		entry.Reconstruct("a", "q", "a", []float32{0.1, 0.9}),
		entry.Reconstruct("b", "q", "a", []float32{0.5, 0.5}),
		entry.Reconstruct("c", "q", "a", []float32{0.9, 0.1}),
	)
	svc, err := New(store, 0.3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q := []float32{0.4, 0.6}
	first, err := svc.Match(q)
	if err != nil {
		t.Fatalf("first match: %v", err)
	}
	second, err := svc.Match(q)
	if err != nil {
		t.Fatalf("second match: %v", err)
	}
	if first.Entry().ID() != second.Entry().ID() ||
		first.Score() != second.Score() ||
		first.Accepted() != second.Accepted() {
		t.Errorf("match not deterministic: %+v vs %+v", first, second)
	}
}

func TestMatch_ScoreInRange(t *testing.T) {
	store := storeOf(t,
		entry.Reconstruct("a", "q", "a", []float32{1, 2, 3}),
		entry.Reconstruct("b", "q", "a", []float32{-3, -2, -1}),
	)
	svc, err := New(store, 0.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, q := range [][]float32{{1, 1, 1}, {-1, 5, 0.2}, {0, 0, 0}} {
		res, err := svc.Match(q)
		if err != nil {
			t.Fatalf("match %v: %v", q, err)
		}
		if res.Score() < -1 || res.Score() > 1 || math.IsNaN(res.Score()) {
			t.Errorf("query %v: score %v out of [-1, 1]", q, res.Score())
		}
	}
}

func TestMatch_DimensionMismatchIsConfigError(t *testing.T) {
	store := storeOf(t, entry.Reconstruct("a", "q", "a", []float32{1, 0, 0}))
	svc, err := New(store, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = svc.Match([]float32{1, 0})
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}

func TestMatch_EmptyStore(t *testing.T) {
	svc, err := New(&mockStore{}, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := svc.Match([]float32{1}); !errors.Is(err, domain.ErrDataInvalid) {
		t.Fatalf("got %v, want ErrDataInvalid", err)
	}
}
