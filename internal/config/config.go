package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Corpus source identifiers.
const (
	SourceBooks    = "books"
	SourceComments = "comments"
)

// Split persistence backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Validation episode modes.
const (
	ModeHalfSplit = "half_split"
	ModeFull      = "full"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Corpus selects the ingestion adapter and where its raw files live.
type Corpus struct {
	Source          string `toml:"source"`
	BooksDir        string `toml:"books_dir"`
	CommentsDir     string `toml:"comments_dir"`
	AuthorSeparator string `toml:"author_separator"`
	// MinAuthorTokens drops authors with fewer whitespace tokens before the
	// vocabulary is built. Default: 0 for books, 1000 for comments.
	MinAuthorTokens int `toml:"min_author_tokens"`
}

// Vocabulary contains the frequency threshold for vocabulary truncation.
type Vocabulary struct {
	MinOccurrences int `toml:"min_occurrences"`
}

// Embedding describes the pretrained word-vector table.
type Embedding struct {
	GloVePath string `toml:"glove_path"`
	Dim       int    `toml:"dim"`
}

// Split controls how train/validation author pools are persisted.
type Split struct {
	Backend string `toml:"backend"`
	// ValidationSize is the number of held-out authors.
	// Default: 20 for books, 1000 for comments.
	ValidationSize int `toml:"validation_size"`
}

// Episode holds the default episode shapes used by the CLI and by the
// eligibility filter that runs before partitioning.
type Episode struct {
	Tasks                 int    `toml:"tasks"`
	Examples              int    `toml:"examples"`
	ExampleSize           int    `toml:"example_size"`
	ValidationTasks       int    `toml:"validation_tasks"`
	ValidationExamples    int    `toml:"validation_examples"`
	ValidationExampleSize int    `toml:"validation_example_size"`
	ValMultiplier         int    `toml:"val_multiplier"`
	ValidationMode        string `toml:"validation_mode"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fewshot.
//
// Configuration sections by subsystem:
//   - Paths: data, state (split manifests) and log directories
//   - Corpus: ingestion adapter selection and raw corpus locations
//   - Vocabulary: frequency threshold for the shared vocabulary
//   - Embedding: pretrained GloVe table location and dimension
//   - Split: author pool persistence backend and validation pool size
//   - Episode: default N-way K-shot shapes
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Corpus     Corpus     `toml:"corpus"`
	Vocabulary Vocabulary `toml:"vocabulary"`
	Embedding  Embedding  `toml:"embedding"`
	Split      Split      `toml:"split"`
	Episode    Episode    `toml:"episode"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fewshot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithSource(path, "")
}

// LoadWithSource behaves like Load but replaces corpus.source before
// per-corpus defaults are resolved. An empty source keeps the file's value.
func LoadWithSource(path, source string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if strings.TrimSpace(source) != "" {
		cfg.Corpus.Source = source
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fewshot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. Corpus
// directories are inputs and are never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceDir returns the raw corpus directory for the configured source.
func (c *Config) SourceDir() string {
	if c.Corpus.Source == SourceComments {
		return c.Corpus.CommentsDir
	}
	return c.Corpus.BooksDir
}

// SplitManifestPath returns the JSON manifest path for the configured corpus.
func (c *Config) SplitManifestPath() string {
	return filepath.Join(c.Paths.StateDir, c.Corpus.Source+".split.json")
}

// SplitDatabasePath returns the SQLite database path shared by all corpora.
func (c *Config) SplitDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "splits.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
