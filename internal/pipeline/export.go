package pipeline

import (
	"fmt"
	"io"
	"path/filepath"

	"fewshot/internal/fileutil"
)

// Export file names written by Dataset.Export.
const (
	VocabularyFile = "vocab.txt"
	EmbeddingFile  = "embedding.bin"
)

// Export writes the vocabulary (one word per line, line number = id) and the
// embedding matrix in gonum's binary encoding into dir.
func (d *Dataset) Export(dir string) error {
	vocabPath := filepath.Join(dir, VocabularyFile)
	if err := fileutil.WriteAtomicFunc(vocabPath, 0o644, d.vocab.WriteText); err != nil {
		return fmt.Errorf("export vocabulary: %w", err)
	}
	embeddingPath := filepath.Join(dir, EmbeddingFile)
	err := fileutil.WriteAtomicFunc(embeddingPath, 0o644, func(w io.Writer) error {
		_, err := d.matrix.MarshalBinaryTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("export embedding: %w", err)
	}
	return nil
}
