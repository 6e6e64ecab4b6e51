package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fewshot/internal/config"
	"fewshot/internal/corpus"
	"fewshot/internal/pipeline"
)

// buildDataset runs the pipeline for the configured corpus.
func (c *commandContext) buildDataset(cmd *cobra.Command, seed uint64) (*pipeline.Dataset, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Source, err = pipeline.NewSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := pipeline.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open split store: %w", err)
	}
	defer closeStore()

	opts.Store = store
	opts.Embeddings = pipeline.GloVeLoader(cfg.Embedding.GloVePath, cfg.Embedding.Dim)
	opts.Rand = newRand(seed)
	opts.Logger = logger

	bar := newSpinner(cmd.ErrOrStderr(), "reading "+opts.Source.Name())
	if bar != nil {
		opts.Progress = corpus.Progress(bar)
	}
	ds, err := pipeline.Build(cmd.Context(), opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, nil, err
	}
	return ds, cfg, nil
}
