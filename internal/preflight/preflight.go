package preflight

import (
	"context"

	"fewshot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes every check that applies to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCorpusDirectory(cfg.Corpus.Source, cfg.SourceDir()),
		CheckGloVe(ctx, cfg.Embedding.GloVePath, cfg.Embedding.Dim),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("State filesystem", cfg.Paths.StateDir, minStateFreeBytes),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}
