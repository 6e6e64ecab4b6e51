package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"fewshot/internal/logging"
)

var (
	// ErrInsufficientAuthors reports fewer eligible authors than held-out slots.
	ErrInsufficientAuthors = errors.New("insufficient authors for validation pool")
	// ErrSplitExists is returned by Store.Save when another run already saved
	// a partition for the corpus.
	ErrSplitExists = errors.New("split already exists")
)

// Pools is a persisted author partition.
type Pools struct {
	ID         string    `json:"id"`
	Corpus     string    `json:"corpus"`
	CreatedAt  time.Time `json:"created_at"`
	Train      []string  `json:"train"`
	Validation []string  `json:"validation"`

	// Reused is set when the partition came from the store.
	Reused bool `json:"-"`
}

// Store persists one partition per corpus.
type Store interface {
	Load(ctx context.Context, corpus string) (Pools, bool, error)
	Save(ctx context.Context, corpus string, pools Pools) error
	Delete(ctx context.Context, corpus string) error
}

// Locker is implemented by stores that can hold a cross-process lock for a
// corpus while a partition is loaded or drawn.
type Locker interface {
	Lock(ctx context.Context, corpus string) (unlock func() error, err error)
}

// Partitioner draws and reuses author partitions.
type Partitioner struct {
	store  Store
	rng    *rand.Rand
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Partitioner) { p.logger = logger }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Partitioner) { p.now = now }
}

// NewPartitioner creates a partitioner. A nil store keeps partitions in
// memory only; a nil rng uses the shared top-level generator.
func NewPartitioner(store Store, rng *rand.Rand, opts ...Option) *Partitioner {
	p := &Partitioner{store: store, rng: rng, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		p.store = NewMemoryStore()
	}
	p.logger = logging.NewComponentLogger(p.logger, "split")
	return p
}

// Partition returns disjoint pools whose union is authors. validationSize
// authors are held out unless a persisted partition exists, in which case
// its validation authors that are still present are held out instead.
func (p *Partitioner) Partition(ctx context.Context, corpus string, authors []string, validationSize int) (Pools, error) {
	if validationSize <= 0 {
		return Pools{}, fmt.Errorf("validation size must be positive, got %d", validationSize)
	}
	if locker, ok := p.store.(Locker); ok {
		unlock, err := locker.Lock(ctx, corpus)
		if err != nil {
			return Pools{}, fmt.Errorf("lock split: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				p.logger.Warn("split unlock failed", logging.Error(err))
			}
		}()
	}

	persisted, ok, err := p.store.Load(ctx, corpus)
	if err != nil {
		return Pools{}, fmt.Errorf("load split: %w", err)
	}
	if ok {
		return p.reuse(persisted, authors)
	}

	pools, err := p.draw(corpus, authors, validationSize)
	if err != nil {
		return Pools{}, err
	}
	if err := p.store.Save(ctx, corpus, pools); err != nil {
		if !errors.Is(err, ErrSplitExists) {
			return Pools{}, fmt.Errorf("save split: %w", err)
		}
		persisted, ok, loadErr := p.store.Load(ctx, corpus)
		if loadErr != nil || !ok {
			return Pools{}, fmt.Errorf("reload concurrent split: %w", errors.Join(err, loadErr))
		}
		return p.reuse(persisted, authors)
	}
	p.logger.Info("split drawn",
		logging.String("split_id", pools.ID),
		logging.Int("train", len(pools.Train)),
		logging.Int("validation", len(pools.Validation)),
	)
	return pools, nil
}

func (p *Partitioner) draw(corpus string, authors []string, validationSize int) (Pools, error) {
	if validationSize > len(authors) {
		return Pools{}, fmt.Errorf("%w: %d eligible, %d requested", ErrInsufficientAuthors, len(authors), validationSize)
	}
	var perm []int
	if p.rng != nil {
		perm = p.rng.Perm(len(authors))
	} else {
		perm = rand.Perm(len(authors))
	}
	held := make(map[string]struct{}, validationSize)
	validation := make([]string, 0, validationSize)
	for _, idx := range perm[:validationSize] {
		held[authors[idx]] = struct{}{}
		validation = append(validation, authors[idx])
	}
	slices.Sort(validation)
	return Pools{
		ID:         uuid.NewString(),
		Corpus:     corpus,
		CreatedAt:  p.now().UTC(),
		Train:      without(authors, held),
		Validation: validation,
	}, nil
}

func (p *Partitioner) reuse(persisted Pools, authors []string) (Pools, error) {
	present := make(map[string]struct{}, len(authors))
	for _, author := range authors {
		present[author] = struct{}{}
	}
	held := make(map[string]struct{}, len(persisted.Validation))
	validation := make([]string, 0, len(persisted.Validation))
	var missing []string
	for _, author := range persisted.Validation {
		if _, ok := present[author]; !ok {
			missing = append(missing, author)
			continue
		}
		held[author] = struct{}{}
		validation = append(validation, author)
	}
	if len(missing) > 0 {
		logging.WarnWithContext(p.logger, "persisted validation authors missing from corpus", "split_authors_missing",
			logging.String("split_id", persisted.ID),
			logging.Int("missing", len(missing)),
			logging.String(logging.FieldErrorHint, "run 'fewshot split reset' to draw a new split"),
			logging.String(logging.FieldImpact, "validation pool is smaller than configured"),
		)
	}
	if len(validation) == 0 {
		return Pools{}, fmt.Errorf("%w: persisted split %s has no remaining validation authors", ErrInsufficientAuthors, persisted.ID)
	}
	p.logger.Info("split reused",
		logging.String("split_id", persisted.ID),
		logging.Int("validation", len(validation)),
	)
	return Pools{
		ID:         persisted.ID,
		Corpus:     persisted.Corpus,
		CreatedAt:  persisted.CreatedAt,
		Train:      without(authors, held),
		Validation: validation,
		Reused:     true,
	}, nil
}

func without(authors []string, held map[string]struct{}) []string {
	out := make([]string, 0, len(authors))
	for _, author := range authors {
		if _, ok := held[author]; !ok {
			out = append(out, author)
		}
	}
	return out
}
