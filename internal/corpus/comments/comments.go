// Package comments reads CSV exports of forum comments, one comment per row,
// attributing each comment to the author column.
package comments

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fewshot/internal/corpus"
	"fewshot/internal/logging"
)

// Name identifies the comments adapter.
const Name = "comments"

// Missing stands in for an absent or empty cell.
const Missing = "nan"

// wideColumns is the column count of the export variant that carries a
// leading index column and a junk first data row.
const wideColumns = 13

// Layout locates the comment text and author columns in one CSV file.
type Layout struct {
	TextColumn    int
	AuthorColumn  int
	SkipFirstRow  bool
	HeaderColumns int
}

// DetectLayout picks the layout from a header row. Wide exports use the
// columns named "1" and "6" and skip their first data row; every other
// export uses the columns named "0" and "5".
func DetectLayout(header []string) (Layout, error) {
	textName, authorName := "0", "5"
	layout := Layout{HeaderColumns: len(header)}
	if len(header) == wideColumns {
		textName, authorName = "1", "6"
		layout.SkipFirstRow = true
	}
	layout.TextColumn = indexOf(header, textName)
	layout.AuthorColumn = indexOf(header, authorName)
	if layout.TextColumn < 0 || layout.AuthorColumn < 0 {
		return Layout{}, fmt.Errorf("%w: header %v lacks columns %q and %q", corpus.ErrSchema, header, textName, authorName)
	}
	return layout, nil
}

func indexOf(header []string, name string) int {
	for i, column := range header {
		if strings.TrimSpace(column) == name {
			return i
		}
	}
	return -1
}

// Source walks every *.csv file of a directory in lexical order.
type Source struct {
	dir    string
	logger *slog.Logger
}

// New creates a comments source rooted at dir.
func New(dir string, logger *slog.Logger) *Source {
	return &Source{dir: dir, logger: logging.NewComponentLogger(logger, "comments")}
}

// Name implements corpus.Source.
func (s *Source) Name() string { return Name }

// Walk emits one fragment per comment row.
func (s *Source) Walk(ctx context.Context, fn func(corpus.Fragment) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read comments dir: %w", err)
	}
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.walkFile(ctx, filepath.Join(s.dir, entry.Name()), fn); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		files++
	}
	s.logger.Debug("comment files read", logging.Int("files", files))
	return nil
}

func (s *Source) walkFile(ctx context.Context, path string, fn func(corpus.Fragment) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	layout, err := DetectLayout(header)
	if err != nil {
		return err
	}

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		rows++
		if layout.SkipFirstRow && rows == 1 {
			continue
		}
		if rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fragment := corpus.Fragment{
			Author: cell(record, layout.AuthorColumn),
			Text:   cell(record, layout.TextColumn),
		}
		if err := fn(fragment); err != nil {
			return err
		}
	}
	s.logger.Debug("comment file read",
		logging.String("file", filepath.Base(path)),
		logging.Int("rows", rows),
		logging.Bool("wide", layout.SkipFirstRow),
	)
	return nil
}

// cell returns the value at index, substituting Missing for short rows and
// empty cells.
func cell(record []string, index int) string {
	if index >= len(record) || record[index] == "" {
		return Missing
	}
	return record[index]
}
