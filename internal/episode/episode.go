package episode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	// ErrInvalidParams reports a non-positive shape parameter.
	ErrInvalidParams = errors.New("invalid episode parameters")
	// ErrTooManyTasks reports a pool smaller than the requested way count.
	ErrTooManyTasks = errors.New("more tasks than authors in pool")
	// ErrSequenceTooShort reports an author too short for the window.
	ErrSequenceTooShort = errors.New("author sequence too short for example size")
)

// DefaultValMultiplier is the query-to-support ratio used when Params leaves
// it zero.
const DefaultValMultiplier = 20

// Mode selects where support and query offsets come from.
type Mode int

const (
	// ModeFull draws both sets from the whole sequence.
	ModeFull Mode = iota
	// ModeHalfSplit draws support from the first half and query from the second.
	ModeHalfSplit
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeHalfSplit:
		return "half_split"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "full" and "half_split".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "half_split", "half-split", "halfsplit":
		return ModeHalfSplit, nil
	default:
		return 0, fmt.Errorf("unknown episode mode %q", s)
	}
}

// MinLength is the shortest sequence that can serve mode with size-token
// windows.
func MinLength(size int, mode Mode) int {
	if mode == ModeHalfSplit {
		return 2 * (size + 1)
	}
	return size + 1
}

// Params shapes one episode.
type Params struct {
	Tasks         int
	Examples      int
	ExampleSize   int
	ValMultiplier int
	Mode          Mode
}

func (p Params) multiplier() int {
	if p.ValMultiplier == 0 {
		return DefaultValMultiplier
	}
	return p.ValMultiplier
}

// Validate reports non-positive shape parameters.
func (p Params) Validate() error {
	switch {
	case p.Tasks <= 0:
		return fmt.Errorf("%w: tasks %d", ErrInvalidParams, p.Tasks)
	case p.Examples <= 0:
		return fmt.Errorf("%w: examples %d", ErrInvalidParams, p.Examples)
	case p.ExampleSize <= 0:
		return fmt.Errorf("%w: example size %d", ErrInvalidParams, p.ExampleSize)
	case p.ValMultiplier < 0:
		return fmt.Errorf("%w: val multiplier %d", ErrInvalidParams, p.ValMultiplier)
	case p.Mode != ModeFull && p.Mode != ModeHalfSplit:
		return fmt.Errorf("%w: %s", ErrInvalidParams, p.Mode)
	}
	return nil
}

// Batch is a row-major matrix of token ids.
type Batch struct {
	Rows int
	Cols int
	Data []int64
}

// Row returns row i as a view into Data.
func (b Batch) Row(i int) []int64 {
	return b.Data[i*b.Cols : (i+1)*b.Cols]
}

// Episode is one sampled N-way K-shot task.
type Episode struct {
	// Authors[i] is the author behind label i.
	Authors     []string
	Train       Batch
	TrainLabels []int64
	Val         Batch
	ValLabels   []int64
}

// Sequences resolves an author to its token ids.
type Sequences interface {
	Sequence(author string) []int
}

// Sampler draws episodes. It is not safe for concurrent use when built with
// a non-nil generator.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps rng. A nil rng uses the shared top-level generator, which
// is safe for concurrent use but not reproducible.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

func (s *Sampler) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

// between returns a uniform integer in [lo, hi].
func (s *Sampler) between(lo, hi int) int {
	return lo + s.intN(hi-lo+1)
}

// Sample draws one episode from pool.
func (s *Sampler) Sample(seqs Sequences, pool []string, p Params) (*Episode, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Tasks > len(pool) {
		return nil, fmt.Errorf("%w: %d tasks, %d authors", ErrTooManyTasks, p.Tasks, len(pool))
	}

	authors := s.pick(pool, p.Tasks)
	type window struct{ trainHi, valLo, valHi int }
	windows := make([]window, len(authors))
	for i, author := range authors {
		n := len(seqs.Sequence(author))
		if n < MinLength(p.ExampleSize, p.Mode) {
			return nil, fmt.Errorf("%w: %q has %d tokens, %s mode with size %d needs %d",
				ErrSequenceTooShort, author, n, p.Mode, p.ExampleSize, MinLength(p.ExampleSize, p.Mode))
		}
		w := window{trainHi: n - p.ExampleSize - 1, valHi: n - p.ExampleSize - 1}
		if p.Mode == ModeHalfSplit {
			w.trainHi = n/2 - p.ExampleSize - 1
			w.valLo = n / 2
		}
		windows[i] = w
	}

	valPerAuthor := p.Examples * p.multiplier()
	ep := &Episode{
		Authors:     authors,
		Train:       newBatch(p.Tasks*p.Examples, p.ExampleSize),
		TrainLabels: make([]int64, 0, p.Tasks*p.Examples),
		Val:         newBatch(p.Tasks*valPerAuthor, p.ExampleSize),
		ValLabels:   make([]int64, 0, p.Tasks*valPerAuthor),
	}
	trainRow, valRow := 0, 0
	for i, author := range authors {
		seq := seqs.Sequence(author)
		w := windows[i]
		for k := 0; k < p.Examples; k++ {
			copyWindow(ep.Train.Row(trainRow), seq, s.between(0, w.trainHi))
			ep.TrainLabels = append(ep.TrainLabels, int64(i))
			trainRow++
		}
		for k := 0; k < valPerAuthor; k++ {
			copyWindow(ep.Val.Row(valRow), seq, s.between(w.valLo, w.valHi))
			ep.ValLabels = append(ep.ValLabels, int64(i))
			valRow++
		}
	}
	return ep, nil
}

// pick draws k distinct authors without replacement.
func (s *Sampler) pick(pool []string, k int) []string {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates: only the first k positions are needed.
	for i := 0; i < k; i++ {
		j := i + s.intN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := make([]string, k)
	for i := range out {
		out[i] = pool[idx[i]]
	}
	return out
}

func newBatch(rows, cols int) Batch {
	return Batch{Rows: rows, Cols: cols, Data: make([]int64, rows*cols)}
}

func copyWindow(dst []int64, seq []int, offset int) {
	for i := range dst {
		dst[i] = int64(seq[offset+i])
	}
}
