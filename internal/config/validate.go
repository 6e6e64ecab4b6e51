package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validateVocabulary(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateEpisode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCorpus() error {
	switch c.Corpus.Source {
	case SourceBooks, SourceComments:
	default:
		return fmt.Errorf("corpus.source must be %q or %q, got %q", SourceBooks, SourceComments, c.Corpus.Source)
	}
	if strings.TrimSpace(c.SourceDir()) == "" {
		return fmt.Errorf("corpus.%s_dir must be set", c.Corpus.Source)
	}
	if c.Corpus.Source == SourceBooks && strings.TrimSpace(c.Corpus.AuthorSeparator) == "" {
		return errors.New("corpus.author_separator must not be blank")
	}
	if c.Corpus.MinAuthorTokens < 0 {
		return errors.New("corpus.min_author_tokens must be >= 0")
	}
	return nil
}

func (c *Config) validateVocabulary() error {
	if c.Vocabulary.MinOccurrences < 1 {
		return errors.New("vocabulary.min_occurrences must be >= 1")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Dim <= 0 {
		return errors.New("embedding.dim must be positive")
	}
	return nil
}

func (c *Config) validateSplit() error {
	switch c.Split.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("split.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Split.Backend)
	}
	if c.Split.ValidationSize <= 0 {
		return errors.New("split.validation_size must be positive")
	}
	return nil
}

func (c *Config) validateEpisode() error {
	if err := ensurePositiveMap(map[string]int{
		"episode.tasks":                   c.Episode.Tasks,
		"episode.examples":                c.Episode.Examples,
		"episode.example_size":            c.Episode.ExampleSize,
		"episode.validation_tasks":        c.Episode.ValidationTasks,
		"episode.validation_examples":     c.Episode.ValidationExamples,
		"episode.validation_example_size": c.Episode.ValidationExampleSize,
		"episode.val_multiplier":          c.Episode.ValMultiplier,
	}); err != nil {
		return err
	}
	switch c.Episode.ValidationMode {
	case ModeHalfSplit, ModeFull:
	default:
		return fmt.Errorf("episode.validation_mode must be %q or %q, got %q", ModeHalfSplit, ModeFull, c.Episode.ValidationMode)
	}
	if c.Episode.ValidationTasks > c.Split.ValidationSize {
		return fmt.Errorf("episode.validation_tasks (%d) exceeds split.validation_size (%d)", c.Episode.ValidationTasks, c.Split.ValidationSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
