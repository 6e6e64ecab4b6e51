package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"fewshot/internal/corpus"
	"fewshot/internal/embedding"
	"fewshot/internal/episode"
	"fewshot/internal/logging"
	"fewshot/internal/split"
	"fewshot/internal/textnorm"
	"fewshot/internal/vocab"
)

// EmbeddingLoader produces the vector source once the vocabulary is known.
// keep reports whether a word is in the vocabulary.
type EmbeddingLoader func(ctx context.Context, keep func(word string) bool) (embedding.Source, error)

// StaticEmbeddings adapts an already loaded source.
func StaticEmbeddings(src embedding.Source) EmbeddingLoader {
	return func(context.Context, func(string) bool) (embedding.Source, error) {
		return src, nil
	}
}

// Options configures Build.
type Options struct {
	Source          corpus.Source
	Normalize       textnorm.Options
	MinAuthorTokens int
	MinOccurrences  int
	Embeddings      EmbeddingLoader

	// Store persists the author split; nil keeps it in memory.
	Store          split.Store
	ValidationSize int

	// ExampleSize and ValidationExampleSize set the eligibility floor: every
	// kept author can serve a training window of ExampleSize and a
	// validation window of ValidationExampleSize in ValidationMode.
	ExampleSize           int
	ValidationExampleSize int
	ValidationMode        episode.Mode

	// Rand drives the split draw; nil uses the shared generator.
	Rand     *rand.Rand
	Logger   *slog.Logger
	Progress corpus.Progress
}

// Stats summarizes a build.
type Stats struct {
	RunID             string
	Corpus            string
	Authors           int
	Dropped           []string
	Excluded          []string
	Tokens            int
	UnknownTokens     int
	VocabSize         int
	IgnoredWords      int
	EmbeddingDim      int
	EmbeddingHits     int
	SplitID           string
	SplitReused       bool
	TrainAuthors      int
	ValidationAuthors int
	Elapsed           time.Duration
}

// Dataset is the immutable result of Build.
type Dataset struct {
	vocab          *vocab.Vocabulary
	matrix         *mat.Dense
	encoded        *corpus.Encoded
	pools          split.Pools
	stats          Stats
	validationMode episode.Mode
}

// Build runs every stage and returns the dataset.
func Build(ctx context.Context, opts Options) (*Dataset, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if opts.Embeddings == nil {
		return nil, errors.New("pipeline: embedding loader is required")
	}
	if opts.MinOccurrences <= 0 {
		opts.MinOccurrences = vocab.DefaultMinOccurrences
	}

	started := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithCorpus(ctx, opts.Source.Name()), runID)
	logger := logging.NewComponentLogger(logging.WithContext(ctx, opts.Logger), "pipeline")
	stats := Stats{RunID: runID, Corpus: opts.Source.Name()}

	stageStart := time.Now()
	raw, err := corpus.Collect(ctx, opts.Source, corpus.CollectOptions{
		MinTokens: opts.MinAuthorTokens,
		Progress:  opts.Progress,
		Logger:    logging.WithContext(ctx, opts.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	stats.Authors = raw.Len()
	stats.Dropped = raw.Dropped()
	logging.StageDone(logger, "collect", stageStart,
		logging.Int("authors", stats.Authors),
		logging.Int("dropped", len(stats.Dropped)),
	)

	stageStart = time.Now()
	normalized := raw.Map(func(text string) string {
		return textnorm.Normalize(text, opts.Normalize)
	})
	logging.StageDone(logger, "normalize", stageStart)

	stageStart = time.Now()
	v := vocab.Build(normalized, opts.MinOccurrences)
	encoded := v.EncodeCorpus(normalized)
	stats.VocabSize = v.Len()
	stats.IgnoredWords = v.Ignored()
	stats.Tokens, stats.UnknownTokens = countTokens(encoded)
	logging.StageDone(logger, "vocabulary", stageStart,
		logging.Int("n_words", stats.VocabSize),
		logging.Int("ignored_words", stats.IgnoredWords),
		logging.Int("tokens", stats.Tokens),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	src, err := opts.Embeddings(ctx, func(word string) bool {
		_, ok := v.ID(word)
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	matrix, err := embedding.Attach(v, src)
	if err != nil {
		return nil, fmt.Errorf("attach embeddings: %w", err)
	}
	stats.EmbeddingDim = src.Dim()
	stats.EmbeddingHits = embedding.Coverage(v, src)
	logging.StageDone(logger, "embedding", stageStart,
		logging.Int("dim", stats.EmbeddingDim),
		logging.Int("hits", stats.EmbeddingHits),
	)

	stageStart = time.Now()
	minLen := eligibleLength(opts)
	eligible := encoded.Filter(func(author string, seq []int) bool {
		if len(seq) >= minLen {
			return true
		}
		stats.Excluded = append(stats.Excluded, author)
		logger.Debug("author excluded",
			logging.String(logging.FieldAuthor, author),
			logging.Int("tokens", len(seq)),
			logging.Int("required", minLen),
		)
		return false
	})
	if len(stats.Excluded) > 0 {
		logging.WarnWithContext(logger, "authors too short for episode shapes", "authors_excluded",
			logging.Int("excluded", len(stats.Excluded)),
			logging.Int("required_tokens", minLen),
			logging.String(logging.FieldErrorHint, "lower example sizes to keep short authors"),
			logging.String(logging.FieldImpact, "excluded authors are never sampled"),
		)
	}
	logging.StageDone(logger, "eligibility", stageStart, logging.Int("eligible", eligible.Len()))

	stageStart = time.Now()
	partitioner := split.NewPartitioner(opts.Store, opts.Rand, split.WithLogger(logging.WithContext(ctx, opts.Logger)))
	pools, err := partitioner.Partition(ctx, opts.Source.Name(), eligible.Authors(), opts.ValidationSize)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	stats.SplitID = pools.ID
	stats.SplitReused = pools.Reused
	stats.TrainAuthors = len(pools.Train)
	stats.ValidationAuthors = len(pools.Validation)
	logging.StageDone(logger, "split", stageStart,
		logging.String("split_id", pools.ID),
		logging.Bool("reused", pools.Reused),
		logging.Int("train", stats.TrainAuthors),
		logging.Int("validation", stats.ValidationAuthors),
	)

	stats.Elapsed = time.Since(started)
	logger.Info("dataset ready", logging.Duration("elapsed", stats.Elapsed))
	return &Dataset{
		vocab:          v,
		matrix:         matrix,
		encoded:        eligible,
		pools:          pools,
		stats:          stats,
		validationMode: opts.ValidationMode,
	}, nil
}

func eligibleLength(opts Options) int {
	minLen := 0
	if opts.ExampleSize > 0 {
		minLen = episode.MinLength(opts.ExampleSize, episode.ModeFull)
	}
	if opts.ValidationExampleSize > 0 {
		minLen = max(minLen, episode.MinLength(opts.ValidationExampleSize, opts.ValidationMode))
	}
	return minLen
}

func countTokens(e *corpus.Encoded) (total, unknown int) {
	for _, author := range e.Authors() {
		for _, id := range e.Sequence(author) {
			total++
			if id == vocab.UnknownID {
				unknown++
			}
		}
	}
	return total, unknown
}

// TrainingEpisode samples from the training pool over whole sequences.
// p.Mode is ignored.
func (d *Dataset) TrainingEpisode(rng *rand.Rand, p episode.Params) (*episode.Episode, error) {
	p.Mode = episode.ModeFull
	return episode.NewSampler(rng).Sample(d.encoded, d.pools.Train, p)
}

// ValidationEpisode samples from the validation pool in the dataset's
// validation mode. p.Mode is ignored.
func (d *Dataset) ValidationEpisode(rng *rand.Rand, p episode.Params) (*episode.Episode, error) {
	p.Mode = d.validationMode
	return episode.NewSampler(rng).Sample(d.encoded, d.pools.Validation, p)
}

// Vocabulary returns the shared vocabulary.
func (d *Dataset) Vocabulary() *vocab.Vocabulary { return d.vocab }

// Embedding returns the vocabulary-aligned embedding matrix. Callers must
// not modify it.
func (d *Dataset) Embedding() *mat.Dense { return d.matrix }

// Encoded returns the eligible authors' sequences.
func (d *Dataset) Encoded() *corpus.Encoded { return d.encoded }

// Pools returns a copy of the author split.
func (d *Dataset) Pools() split.Pools {
	p := d.pools
	p.Train = append([]string(nil), p.Train...)
	p.Validation = append([]string(nil), p.Validation...)
	return p
}

// Stats returns build statistics.
func (d *Dataset) Stats() Stats {
	s := d.stats
	s.Dropped = append([]string(nil), s.Dropped...)
	s.Excluded = append([]string(nil), s.Excluded...)
	return s
}

// ValidationMode returns the mode ValidationEpisode samples with.
func (d *Dataset) ValidationMode() episode.Mode { return d.validationMode }
