package testsupport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// AuthorText returns n words cycling through words, space separated.
func AuthorText(words []string, n int) string {
	if len(words) == 0 || n <= 0 {
		return ""
	}
	out := make([]string, n)
	for i := range out {
		out[i] = words[i%len(words)]
	}
	return strings.Join(out, " ")
}

// WriteBook writes <dir>/<author>___<title>.txt.
func WriteBook(t testing.TB, dir, author, title, text string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, author+"___"+title+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write book %s: %v", path, err)
	}
}

// Comment is one row of a comments export.
type Comment struct {
	Author string
	Text   string
}

// WriteComments writes a narrow comments export (text in column "0",
// author in column "5").
func WriteComments(t testing.TB, dir, name string, rows ...Comment) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	records := [][]string{{"0", "1", "2", "3", "4", "5"}}
	for i, row := range rows {
		id := strconv.Itoa(i)
		records = append(records, []string{row.Text, id, "", "", "", row.Author})
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv %s: %v", name, err)
	}
}

// WriteGloVe writes a GloVe text table where word i has every component
// equal to i+1.
func WriteGloVe(t testing.TB, path string, dim int, words ...string) {
	t.Helper()

	var b strings.Builder
	for i, word := range words {
		b.WriteString(word)
		for j := 0; j < dim; j++ {
			fmt.Fprintf(&b, " %d", i+1)
		}
		b.WriteByte('\n')
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write glove %s: %v", path, err)
	}
}
