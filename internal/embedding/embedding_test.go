package embedding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"fewshot/internal/corpus"
	"fewshot/internal/vocab"
)

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	raw := corpus.NewRaw("test", []string{"a"}, map[string]string{"a": "the cat zyzzyva"})
	return vocab.Build(raw, 1)
}

func TestAttachAlignsRowsWithIds(t *testing.T) {
	v := testVocab(t)
	table := NewTable(2)
	if err := table.Set("the", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := table.Set("cat", []float64{3, 4}); err != nil {
		t.Fatal(err)
	}

	m, err := Attach(v, table)
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	rows, cols := m.Dims()
	if rows != v.Len() || cols != 2 {
		t.Fatalf("Dims() = %d x %d, want %d x 2", rows, cols, v.Len())
	}
	want := mat.NewDense(4, 2, []float64{
		0, 0, // unknown_token
		1, 2, // the
		3, 4, // cat
		0, 0, // zyzzyva
	})
	if !mat.Equal(m, want) {
		t.Fatalf("matrix = %v, want %v", mat.Formatted(m), mat.Formatted(want))
	}
	if got := Coverage(v, table); got != 2 {
		t.Fatalf("Coverage() = %d, want 2", got)
	}
}

type badSource struct{}

func (badSource) Dim() int { return 3 }

func (badSource) Lookup(string) ([]float64, bool) { return []float64{1}, true }

func (badSource) Default() []float64 { return make([]float64, 3) }

func TestAttachRejectsWrongLength(t *testing.T) {
	if _, err := Attach(testVocab(t), badSource{}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
	if _, err := Attach(testVocab(t), NewTable(0)); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension for zero dim, got %v", err)
	}
}

func TestTableSetRejectsWrongLength(t *testing.T) {
	if err := NewTable(3).Set("x", []float64{1, 2}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
}

func TestReadGloVe(t *testing.T) {
	input := strings.Join([]string{
		"the 0.1 0.2",
		"",
		"new york 1 2",
		"cat -1.5 2e-1",
		"the 9 9",
		"skipped 5 5",
	}, "\n")
	keep := func(word string) bool { return word != "skipped" }

	table, err := ReadGloVe(context.Background(), strings.NewReader(input), 2, keep)
	if err != nil {
		t.Fatalf("ReadGloVe returned error: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	tests := map[string][]float64{
		"the":      {0.1, 0.2},
		"new york": {1, 2},
		"cat":      {-1.5, 0.2},
	}
	for word, want := range tests {
		got, ok := table.Lookup(word)
		if !ok {
			t.Fatalf("missing %q", word)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%q = %v, want %v", word, got, want)
			}
		}
	}
	if _, ok := table.Lookup("skipped"); ok {
		t.Fatal("keep filter ignored")
	}
}

func TestReadGloVeReportsLineOfBadVector(t *testing.T) {
	input := "the 0.1 0.2\ncat 0.3\n"
	_, err := ReadGloVe(context.Background(), strings.NewReader(input), 2, nil)
	if !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in %v", err)
	}

	_, err = ReadGloVe(context.Background(), strings.NewReader("the x 0.2\n"), 2, nil)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected parse error on line 1, got %v", err)
	}
}

func TestReadGloVeRejectsWiderTable(t *testing.T) {
	input := "the 0.1 0.2 0.3 0.4\ncat 0.5 0.6 0.7 0.8\n"
	table, err := ReadGloVe(context.Background(), strings.NewReader(input), 2, nil)
	if !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v (table %v)", err, table)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line number in %v", err)
	}
}

func TestSplitGloVeLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		word    string
		wantErr bool
	}{
		{"single word", "cat 1 2", "cat", false},
		{"multi word", "new york 1 2", "new york", false},
		{"numeric word", "1984 0.5 0.6", "1984", false},
		{"too narrow", "cat 1", "", true},
		{"too wide", "cat 1 2 3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, components, err := SplitGloVeLine(tt.line, 2)
			if tt.wantErr {
				if !errors.Is(err, ErrDimension) {
					t.Fatalf("expected ErrDimension, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if word != tt.word || len(components) != 2 {
				t.Fatalf("got word %q components %v", word, components)
			}
		})
	}
}

func TestLoadGloVeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glove.txt")
	if err := os.WriteFile(path, []byte("cat 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadGloVe(context.Background(), path, 3, nil)
	if err != nil {
		t.Fatalf("LoadGloVe returned error: %v", err)
	}
	if table.Dim() != 3 || table.Len() != 1 {
		t.Fatalf("unexpected table dim=%d len=%d", table.Dim(), table.Len())
	}
	if _, err := LoadGloVe(context.Background(), path+".missing", 3, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
