package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fewshot/internal/logging"
)

// ErrSchema reports a raw corpus file whose layout the adapter cannot read.
var ErrSchema = errors.New("unrecognized corpus schema")

// ErrEmpty reports a source that produced no authors.
var ErrEmpty = errors.New("corpus has no authors")

// Fragment is one piece of raw text attributed to an author: a book file or
// a single comment.
type Fragment struct {
	Author string
	Text   string
}

// Source enumerates the fragments of a raw corpus in a deterministic order.
type Source interface {
	Name() string
	Walk(ctx context.Context, fn func(Fragment) error) error
}

// Progress receives one tick per collected fragment.
type Progress interface {
	Add(n int) error
}

// CollectOptions tunes Collect.
type CollectOptions struct {
	// MinTokens drops authors whose concatenated raw text has fewer
	// whitespace-separated tokens. Zero keeps everyone.
	MinTokens int
	Progress  Progress
	Logger    *slog.Logger
}

// Raw maps each author to the concatenation of their fragments, joined by a
// single space in the order the source emitted them.
type Raw struct {
	name    string
	authors []string
	texts   map[string]string
	dropped []string
}

// NewRaw builds a Raw corpus from an author-ordered text map. Authors absent
// from texts are skipped.
func NewRaw(name string, authors []string, texts map[string]string) *Raw {
	r := &Raw{name: name, texts: make(map[string]string, len(authors))}
	for _, author := range authors {
		text, ok := texts[author]
		if !ok {
			continue
		}
		if _, seen := r.texts[author]; seen {
			continue
		}
		r.authors = append(r.authors, author)
		r.texts[author] = text
	}
	return r
}

// Collect walks src and aggregates fragments per author. Authors keep the
// order in which they were first seen.
func Collect(ctx context.Context, src Source, opts CollectOptions) (*Raw, error) {
	if src == nil {
		return nil, errors.New("collect: nil source")
	}
	logger := logging.NewComponentLogger(opts.Logger, "corpus")

	var order []string
	parts := make(map[string][]string)
	fragments := 0
	err := src.Walk(ctx, func(f Fragment) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := parts[f.Author]; !ok {
			order = append(order, f.Author)
		}
		parts[f.Author] = append(parts[f.Author], f.Text)
		fragments++
		if opts.Progress != nil {
			_ = opts.Progress.Add(1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s corpus: %w", src.Name(), err)
	}

	raw := &Raw{name: src.Name(), texts: make(map[string]string, len(order))}
	for _, author := range order {
		text := strings.Join(parts[author], " ")
		if opts.MinTokens > 0 && len(strings.Fields(text)) < opts.MinTokens {
			raw.dropped = append(raw.dropped, author)
			continue
		}
		raw.authors = append(raw.authors, author)
		raw.texts[author] = text
	}

	logger.Info("corpus collected",
		logging.String("source", src.Name()),
		logging.Int("fragments", fragments),
		logging.Int("authors", len(raw.authors)),
		logging.Int("dropped", len(raw.dropped)),
	)
	if len(raw.authors) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Name(), ErrEmpty)
	}
	return raw, nil
}

// Name returns the source name the corpus was collected from.
func (r *Raw) Name() string { return r.name }

// Len returns the number of authors.
func (r *Raw) Len() int { return len(r.authors) }

// Authors returns the authors in corpus order.
func (r *Raw) Authors() []string {
	return append([]string(nil), r.authors...)
}

// Text returns the concatenated text for author.
func (r *Raw) Text(author string) (string, bool) {
	text, ok := r.texts[author]
	return text, ok
}

// Dropped lists authors removed by the minimum token filter.
func (r *Raw) Dropped() []string {
	return append([]string(nil), r.dropped...)
}

// Map returns a new corpus with fn applied to every author's text.
func (r *Raw) Map(fn func(string) string) *Raw {
	out := &Raw{
		name:    r.name,
		authors: append([]string(nil), r.authors...),
		texts:   make(map[string]string, len(r.texts)),
		dropped: append([]string(nil), r.dropped...),
	}
	for author, text := range r.texts {
		out.texts[author] = fn(text)
	}
	return out
}

// Encoded maps each author to a token id sequence.
type Encoded struct {
	name    string
	authors []string
	seqs    map[string][]int
}

// NewEncoded builds an encoded corpus. The sequences are owned by the
// returned value and must not be modified afterwards.
func NewEncoded(name string, authors []string, seqs map[string][]int) *Encoded {
	e := &Encoded{name: name, seqs: make(map[string][]int, len(authors))}
	for _, author := range authors {
		seq, ok := seqs[author]
		if !ok {
			continue
		}
		if _, seen := e.seqs[author]; seen {
			continue
		}
		e.authors = append(e.authors, author)
		e.seqs[author] = seq
	}
	return e
}

// Name returns the corpus name.
func (e *Encoded) Name() string { return e.name }

// Len returns the number of authors.
func (e *Encoded) Len() int { return len(e.authors) }

// Authors returns the authors in corpus order.
func (e *Encoded) Authors() []string {
	return append([]string(nil), e.authors...)
}

// Sequence returns the token ids of author, or nil when unknown. Callers
// must treat the slice as read-only.
func (e *Encoded) Sequence(author string) []int {
	return e.seqs[author]
}

// Tokens returns the total number of tokens across all authors.
func (e *Encoded) Tokens() int {
	total := 0
	for _, seq := range e.seqs {
		total += len(seq)
	}
	return total
}

// Filter returns a corpus restricted to the authors keep accepts, preserving
// order. Sequences are shared with the receiver.
func (e *Encoded) Filter(keep func(author string, seq []int) bool) *Encoded {
	out := &Encoded{name: e.name, seqs: make(map[string][]int)}
	for _, author := range e.authors {
		seq := e.seqs[author]
		if !keep(author, seq) {
			continue
		}
		out.authors = append(out.authors, author)
		out.seqs[author] = seq
	}
	return out
}
