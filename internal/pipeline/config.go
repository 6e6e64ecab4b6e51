package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"fewshot/internal/config"
	"fewshot/internal/corpus"
	"fewshot/internal/corpus/books"
	"fewshot/internal/corpus/comments"
	"fewshot/internal/embedding"
	"fewshot/internal/episode"
	"fewshot/internal/split"
	"fewshot/internal/textnorm"
)

// NewSource returns the ingestion adapter selected by cfg.
func NewSource(cfg *config.Config, logger *slog.Logger) (corpus.Source, error) {
	switch cfg.Corpus.Source {
	case config.SourceBooks:
		return books.New(cfg.Corpus.BooksDir, cfg.Corpus.AuthorSeparator, logger), nil
	case config.SourceComments:
		return comments.New(cfg.Corpus.CommentsDir, logger), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}

// OpenStore returns the split store selected by cfg and a func that releases
// it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (split.Store, func() error, error) {
	switch cfg.Split.Backend {
	case config.BackendJSON:
		return split.NewFileStore(cfg.Paths.StateDir, logger), func() error { return nil }, nil
	case config.BackendSQLite:
		store, err := split.OpenSQLite(ctx, cfg.SplitDatabasePath(), logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown split backend %q", cfg.Split.Backend)
	}
}

// GloVeLoader loads the table at path, restricted to vocabulary words.
func GloVeLoader(path string, dim int) EmbeddingLoader {
	return func(ctx context.Context, keep func(string) bool) (embedding.Source, error) {
		return embedding.LoadGloVe(ctx, path, dim, keep)
	}
}

// OptionsFromConfig fills the corpus-independent options from cfg. Source,
// Embeddings, Store, Rand, Logger and Progress are left to the caller.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	mode, err := episode.ParseMode(cfg.Episode.ValidationMode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Normalize:             textnorm.Options{CollapseSpaces: cfg.Corpus.Source == config.SourceComments},
		MinAuthorTokens:       cfg.Corpus.MinAuthorTokens,
		MinOccurrences:        cfg.Vocabulary.MinOccurrences,
		ValidationSize:        cfg.Split.ValidationSize,
		ExampleSize:           cfg.Episode.ExampleSize,
		ValidationExampleSize: cfg.Episode.ValidationExampleSize,
		ValidationMode:        mode,
	}, nil
}

// EpisodeParams returns the configured training and validation shapes.
func EpisodeParams(cfg *config.Config) (train, validation episode.Params) {
	train = episode.Params{
		Tasks:         cfg.Episode.Tasks,
		Examples:      cfg.Episode.Examples,
		ExampleSize:   cfg.Episode.ExampleSize,
		ValMultiplier: cfg.Episode.ValMultiplier,
		Mode:          episode.ModeFull,
	}
	validation = episode.Params{
		Tasks:         cfg.Episode.ValidationTasks,
		Examples:      cfg.Episode.ValidationExamples,
		ExampleSize:   cfg.Episode.ValidationExampleSize,
		ValMultiplier: cfg.Episode.ValMultiplier,
	}
	return train, validation
}
