package config

const (
	defaultDataDir                = "~/.local/share/fewshot"
	defaultStateDir               = "~/.local/share/fewshot/state"
	defaultLogDir                 = "~/.local/share/fewshot/logs"
	defaultBooksDir               = "~/.local/share/fewshot/gutenberg/txt"
	defaultCommentsDir            = "~/.local/share/fewshot/reddit"
	defaultGloVePath              = "~/.local/share/fewshot/glove/glove.6B.100d.txt"
	defaultAuthorSeparator        = "___"
	defaultSource                 = SourceBooks
	defaultMinOccurrences         = 10
	defaultEmbeddingDim           = 100
	defaultSplitBackend           = BackendJSON
	defaultBooksValidationSize    = 20
	defaultCommentsValidationSize = 1000
	defaultCommentsMinTokens      = 1000
	defaultTasks                  = 20
	defaultExamples               = 10
	defaultExampleSize            = 64
	defaultValidationExampleSize  = 256
	defaultValMultiplier          = 20
	defaultValidationMode         = ModeHalfSplit
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults. Per-corpus
// values (validation pool size, minimum author length) are resolved during
// normalization once the corpus source is known.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Corpus: Corpus{
			Source:          defaultSource,
			BooksDir:        defaultBooksDir,
			CommentsDir:     defaultCommentsDir,
			AuthorSeparator: defaultAuthorSeparator,
		},
		Vocabulary: Vocabulary{
			MinOccurrences: defaultMinOccurrences,
		},
		Embedding: Embedding{
			GloVePath: defaultGloVePath,
			Dim:       defaultEmbeddingDim,
		},
		Split: Split{
			Backend: defaultSplitBackend,
		},
		Episode: Episode{
			Tasks:                 defaultTasks,
			Examples:              defaultExamples,
			ExampleSize:           defaultExampleSize,
			ValidationTasks:       defaultTasks,
			ValidationExamples:    defaultExamples,
			ValidationExampleSize: defaultValidationExampleSize,
			ValMultiplier:         defaultValMultiplier,
			ValidationMode:        defaultValidationMode,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
