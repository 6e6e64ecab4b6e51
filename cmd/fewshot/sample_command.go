package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fewshot/internal/episode"
	"fewshot/internal/pipeline"
	"fewshot/internal/vocab"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var seed uint64
	var validation bool
	var previewWords int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw one training or validation episode",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, cfg, err := ctx.buildDataset(cmd, seed)
			if err != nil {
				return err
			}
			trainParams, valParams := pipeline.EpisodeParams(cfg)
			rng := newRand(seed)

			kind := "training"
			var ep *episode.Episode
			if validation {
				kind = "validation (" + ds.ValidationMode().String() + ")"
				ep, err = ds.ValidationEpisode(rng, valParams)
			} else {
				ep, err = ds.TrainingEpisode(rng, trainParams)
			}
			if err != nil {
				return fmt.Errorf("sample %s episode: %w", kind, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s episode: %d-way, support [%d,%d], query [%d,%d]\n",
				kind, len(ep.Authors), ep.Train.Rows, ep.Train.Cols, ep.Val.Rows, ep.Val.Cols)
			fmt.Fprintln(out, renderEpisode(ep, ds.Vocabulary(), previewWords))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the split and episode draws (0 picks a random seed)")
	cmd.Flags().BoolVar(&validation, "validation", false, "Sample from the held-out validation pool")
	cmd.Flags().IntVar(&previewWords, "preview", 8, "Words of each author's first support excerpt to show")
	return cmd
}

func renderEpisode(ep *episode.Episode, v *vocab.Vocabulary, previewWords int) string {
	supportPer := ep.Train.Rows / max(len(ep.Authors), 1)
	queryPer := ep.Val.Rows / max(len(ep.Authors), 1)
	rows := make([][]string, 0, len(ep.Authors))
	for label, author := range ep.Authors {
		preview := ""
		if previewWords > 0 && supportPer > 0 {
			preview = decode(ep.Train.Row(label*supportPer), v, previewWords)
		}
		rows = append(rows, []string{
			strconv.Itoa(label),
			author,
			strconv.Itoa(supportPer),
			strconv.Itoa(queryPer),
			preview,
		})
	}
	return renderTable(
		[]string{"Label", "Author", "Support", "Query", "Preview"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func decode(ids []int64, v *vocab.Vocabulary, limit int) string {
	words := make([]string, 0, min(limit, len(ids)))
	for _, id := range ids[:min(limit, len(ids))] {
		word, ok := v.Word(int(id))
		if !ok || id == vocab.UnknownID {
			word = "<unk>"
		}
		words = append(words, word)
	}
	text := strings.Join(words, " ")
	if limit < len(ids) {
		text += " …"
	}
	return text
}
