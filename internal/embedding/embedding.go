package embedding

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"fewshot/internal/vocab"
)

// ErrDimension reports a vector whose length disagrees with the table.
var ErrDimension = errors.New("embedding dimension mismatch")

// Source maps words to fixed-length vectors.
type Source interface {
	Dim() int
	Lookup(word string) ([]float64, bool)
	Default() []float64
}

// Table is an in-memory Source.
type Table struct {
	dim     int
	vectors map[string][]float64
	def     []float64
}

// NewTable creates an empty table whose default vector is all zeros.
func NewTable(dim int) *Table {
	return &Table{dim: dim, vectors: make(map[string][]float64), def: make([]float64, dim)}
}

// Set stores a copy of vec for word.
func (t *Table) Set(word string, vec []float64) error {
	if len(vec) != t.dim {
		return fmt.Errorf("%w: %q has %d components, want %d", ErrDimension, word, len(vec), t.dim)
	}
	t.vectors[word] = append([]float64(nil), vec...)
	return nil
}

// Dim implements Source.
func (t *Table) Dim() int { return t.dim }

// Len returns the number of stored words.
func (t *Table) Len() int { return len(t.vectors) }

// Lookup implements Source.
func (t *Table) Lookup(word string) ([]float64, bool) {
	vec, ok := t.vectors[word]
	return vec, ok
}

// Default implements Source.
func (t *Table) Default() []float64 { return t.def }

// Attach builds the vocabulary-aligned embedding matrix.
func Attach(v *vocab.Vocabulary, src Source) (*mat.Dense, error) {
	dim := src.Dim()
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrDimension, dim)
	}
	m := mat.NewDense(v.Len(), dim, nil)
	for id, word := range v.Words() {
		vec, ok := src.Lookup(word)
		if !ok {
			vec = src.Default()
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: %q has %d components, want %d", ErrDimension, word, len(vec), dim)
		}
		m.SetRow(id, vec)
	}
	return m, nil
}

// Coverage counts vocabulary words, UnknownToken excluded, that src knows.
func Coverage(v *vocab.Vocabulary, src Source) int {
	hits := 0
	for id, word := range v.Words() {
		if id == vocab.UnknownID {
			continue
		}
		if _, ok := src.Lookup(word); ok {
			hits++
		}
	}
	return hits
}
