package testsupport

import (
	"path/filepath"
	"testing"

	"fewshot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Episode shapes are shrunk so small fixture corpora stay eligible.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Corpus.BooksDir = filepath.Join(base, "books")
	cfgVal.Corpus.CommentsDir = filepath.Join(base, "comments")
	cfgVal.Embedding.GloVePath = filepath.Join(base, "glove.txt")
	cfgVal.Embedding.Dim = 4
	cfgVal.Vocabulary.MinOccurrences = 1
	cfgVal.Split.ValidationSize = 2
	cfgVal.Episode.Tasks = 2
	cfgVal.Episode.Examples = 2
	cfgVal.Episode.ExampleSize = 4
	cfgVal.Episode.ValidationTasks = 2
	cfgVal.Episode.ValidationExamples = 2
	cfgVal.Episode.ValidationExampleSize = 8
	cfgVal.Episode.ValMultiplier = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSource switches the corpus adapter.
func WithSource(source string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Corpus.Source = source
	}
}

// WithBackend switches the split persistence backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Split.Backend = backend
	}
}

// WithValidationSize overrides the number of held-out authors.
func WithValidationSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Split.ValidationSize = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
