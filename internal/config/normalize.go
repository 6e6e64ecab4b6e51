package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCorpus(); err != nil {
		return err
	}
	if err := c.normalizeEmbedding(); err != nil {
		return err
	}
	c.normalizeSplit()
	c.normalizeEpisode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCorpus() error {
	c.Corpus.Source = strings.ToLower(strings.TrimSpace(c.Corpus.Source))
	if c.Corpus.Source == "" {
		c.Corpus.Source = defaultSource
	}
	if value, ok := os.LookupEnv("FEWSHOT_CORPUS_DIR"); ok && strings.TrimSpace(value) != "" {
		switch c.Corpus.Source {
		case SourceComments:
			c.Corpus.CommentsDir = strings.TrimSpace(value)
		default:
			c.Corpus.BooksDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Corpus.BooksDir, err = expandPath(c.Corpus.BooksDir); err != nil {
		return fmt.Errorf("corpus.books_dir: %w", err)
	}
	if c.Corpus.CommentsDir, err = expandPath(c.Corpus.CommentsDir); err != nil {
		return fmt.Errorf("corpus.comments_dir: %w", err)
	}
	if c.Corpus.AuthorSeparator == "" {
		c.Corpus.AuthorSeparator = defaultAuthorSeparator
	}
	if c.Corpus.MinAuthorTokens == 0 && c.Corpus.Source == SourceComments {
		c.Corpus.MinAuthorTokens = defaultCommentsMinTokens
	}
	return nil
}

func (c *Config) normalizeEmbedding() error {
	c.Embedding.GloVePath = strings.TrimSpace(c.Embedding.GloVePath)
	if c.Embedding.GloVePath == "" {
		if value, ok := os.LookupEnv("FEWSHOT_GLOVE_PATH"); ok {
			c.Embedding.GloVePath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Embedding.GloVePath, err = expandPath(c.Embedding.GloVePath); err != nil {
		return fmt.Errorf("embedding.glove_path: %w", err)
	}
	if c.Embedding.Dim == 0 {
		c.Embedding.Dim = defaultEmbeddingDim
	}
	return nil
}

func (c *Config) normalizeSplit() {
	c.Split.Backend = strings.ToLower(strings.TrimSpace(c.Split.Backend))
	if c.Split.Backend == "" {
		c.Split.Backend = defaultSplitBackend
	}
	if c.Split.ValidationSize == 0 {
		if c.Corpus.Source == SourceComments {
			c.Split.ValidationSize = defaultCommentsValidationSize
		} else {
			c.Split.ValidationSize = defaultBooksValidationSize
		}
	}
}

func (c *Config) normalizeEpisode() {
	c.Episode.ValidationMode = strings.ToLower(strings.TrimSpace(c.Episode.ValidationMode))
	if c.Episode.ValidationMode == "" {
		c.Episode.ValidationMode = defaultValidationMode
	}
	if c.Episode.ValMultiplier == 0 {
		c.Episode.ValMultiplier = defaultValMultiplier
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
