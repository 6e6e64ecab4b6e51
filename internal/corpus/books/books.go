// Package books reads a directory of plain-text books, one file per book,
// where the file name carries the author before a separator
// (for example "Jane Austen___Emma.txt").
package books

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"fewshot/internal/corpus"
	"fewshot/internal/logging"
)

// Name identifies the books adapter.
const Name = "books"

// DefaultSeparator splits the author from the title in a file name.
const DefaultSeparator = "___"

// Source walks a books directory in lexical file-name order. Files are
// decoded as ISO-8859-1, which accepts every byte sequence.
type Source struct {
	dir       string
	separator string
	logger    *slog.Logger
}

// New creates a books source rooted at dir.
func New(dir, separator string, logger *slog.Logger) *Source {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Source{
		dir:       dir,
		separator: separator,
		logger:    logging.NewComponentLogger(logger, "books"),
	}
}

// Name implements corpus.Source.
func (s *Source) Name() string { return Name }

// Author returns the author encoded in a book file name: everything before
// the first separator, or the whole name when there is none.
func (s *Source) Author(fileName string) string {
	author, _, _ := strings.Cut(fileName, s.separator)
	return author
}

// Walk emits one fragment per book file.
func (s *Source) Walk(ctx context.Context, fn func(corpus.Fragment) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read books dir: %w", err)
	}
	decoder := charmap.ISO8859_1.NewDecoder()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read book %q: %w", name, err)
		}
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return fmt.Errorf("decode book %q: %w", name, err)
		}
		author := s.Author(name)
		if strings.TrimSpace(author) == "" {
			logging.WarnWithContext(s.logger, "skipping book without author", "book_skipped",
				logging.String("file", name),
				logging.String(logging.FieldErrorHint, "name files <author>"+s.separator+"<title>"),
				logging.String(logging.FieldImpact, "book excluded from corpus"),
			)
			continue
		}
		s.logger.Debug("book read", logging.String(logging.FieldAuthor, author), logging.String("file", name))
		if err := fn(corpus.Fragment{Author: author, Text: joinLines(string(decoded))}); err != nil {
			return err
		}
	}
	return nil
}

// joinLines keeps each line terminator and inserts a space after it, so
// lines stay separated once newlines are removed during normalization.
func joinLines(text string) string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return strings.Join(lines, " ")
}
