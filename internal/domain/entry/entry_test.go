package entry

import "testing"

func TestNew_Valid(t *testing.T) {
	e, err := New("qa-0001", "What is your role?", "Security engineer.", []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "qa-0001" {
		t.Errorf("ID: got %q", e.ID())
	}
	if !e.HasEmbedding() {
		t.Error("expected HasEmbedding")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		question string
		answer   string
	}{
		{"empty id", "", "q", "a"},
		{"empty question", "qa-1", "", "a"},
		{"empty answer", "qa-1", "q", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, tt.question, tt.answer, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCorpus(t *testing.T) {
	e := Reconstruct("qa-1", "Who is James?", "A security engineer.", nil)
	want := "Q: Who is James?\nA: A security engineer."
	if got := e.Corpus(); got != want {
		t.Errorf("corpus:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestWithEmbedding(t *testing.T) {
	e := Reconstruct("qa-1", "q", "a", nil)
	if e.HasEmbedding() {
		t.Fatal("fresh entry should have no embedding")
	}
	e2 := e.WithEmbedding([]float32{1, 2, 3})
	if !e2.HasEmbedding() {
		t.Error("copy should carry the embedding")
	}
	if e.HasEmbedding() {
		t.Error("original must stay unchanged")
	}
}

func TestAccessorsOnReturnedValue(t *testing.T) {
	// Accessors must work on an Entry rvalue, the way callers chain them off
	// a match result's Entry().
	get := func() Entry {
		return Reconstruct("qa-1", "q", "a", []float32{1})
	}
	if get().ID() != "qa-1" {
		t.Errorf("ID on returned value: got %s", get().ID())
	}
	if get().Answer() != "a" {
		t.Errorf("Answer on returned value: got %s", get().Answer())
	}
	if !get().HasEmbedding() {
		t.Error("HasEmbedding on returned value: got false")
	}
}
