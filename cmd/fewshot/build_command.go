package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fewshot/internal/pipeline"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var seed uint64
	var exportDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the dataset pipeline and print statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := ctx.buildDataset(cmd, seed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStats(ds.Stats()))

			if dir := strings.TrimSpace(exportDir); dir != "" {
				if err := ds.Export(dir); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %s and %s to %s\n", pipeline.VocabularyFile, pipeline.EmbeddingFile, dir)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the split draw (0 picks a random seed)")
	cmd.Flags().StringVar(&exportDir, "export", "", "Directory to write vocab.txt and embedding.bin into")
	return cmd
}

func renderStats(s pipeline.Stats) string {
	split := s.SplitID
	if s.SplitReused {
		split += " (reused)"
	}
	return renderKeyValues([][2]string{
		{"Corpus", s.Corpus},
		{"Run", s.RunID},
		{"Authors", count(s.Authors)},
		{"Dropped (min tokens)", count(len(s.Dropped))},
		{"Excluded (too short)", count(len(s.Excluded))},
		{"Tokens", count(s.Tokens)},
		{"Unknown tokens", count(s.UnknownTokens)},
		{"Vocabulary", count(s.VocabSize)},
		{"Ignored words", count(s.IgnoredWords)},
		{"Embedding", fmt.Sprintf("%s x %d (%s found)", count(s.VocabSize), s.EmbeddingDim, count(s.EmbeddingHits))},
		{"Split", split},
		{"Train authors", count(s.TrainAuthors)},
		{"Validation authors", count(s.ValidationAuthors)},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	})
}
