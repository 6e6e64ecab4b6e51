package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadGloVe reads a GloVe text file. When keep is non-nil only the words it
// accepts are stored, which keeps memory proportional to the vocabulary
// rather than to the full table.
func LoadGloVe(ctx context.Context, path string, dim int, keep func(word string) bool) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open glove table: %w", err)
	}
	defer file.Close()
	table, err := ReadGloVe(ctx, file, dim, keep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadGloVe parses "word v1 ... vN" lines. Words may contain spaces; the last
// dim fields are the vector (see SplitGloVeLine). The first occurrence of a word wins.
func ReadGloVe(ctx context.Context, r io.Reader, dim int, keep func(word string) bool) (*Table, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrDimension, dim)
	}
	table := NewTable(dim)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 256*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		word, components, err := SplitGloVeLine(text, dim)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if keep != nil && !keep(word) {
			continue
		}
		if _, seen := table.vectors[word]; seen {
			continue
		}
		vec := make([]float64, dim)
		for i, field := range components {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse component %d: %w", line, i+1, err)
			}
			vec[i] = value
		}
		table.vectors[word] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read glove table: %w", err)
	}
	return table, nil
}

// SplitGloVeLine separates a GloVe line into its word and its last dim
// fields. A word may span several fields, but its last field must not be a
// number: a numeric field there means the line has more than dim components.
func SplitGloVeLine(text string, dim int) (string, []string, error) {
	fields := strings.Fields(text)
	if len(fields) < dim+1 {
		return "", nil, fmt.Errorf("%w: %d components, want %d", ErrDimension, len(fields)-1, dim)
	}
	split := len(fields) - dim
	if split > 1 {
		if _, err := strconv.ParseFloat(fields[split-1], 64); err == nil {
			return "", nil, fmt.Errorf("%w: more than %d components", ErrDimension, dim)
		}
	}
	return strings.Join(fields[:split], " "), fields[split:], nil
}
