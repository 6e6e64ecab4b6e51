package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fewshot/internal/pipeline"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Inspect or reset the persisted author split",
	}
	splitCmd.AddCommand(newSplitShowCommand(ctx))
	splitCmd.AddCommand(newSplitResetCommand(ctx))
	return splitCmd
}

func newSplitShowCommand(ctx *commandContext) *cobra.Command {
	var showTrain bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted train/validation pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := pipeline.OpenStore(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			pools, ok, err := store.Load(cmd.Context(), cfg.Corpus.Source)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "No split stored for %s; run `fewshot build` to draw one\n", cfg.Corpus.Source)
				return nil
			}

			fmt.Fprintln(out, renderKeyValues([][2]string{
				{"Corpus", cfg.Corpus.Source},
				{"Split", pools.ID},
				{"Backend", cfg.Split.Backend},
				{"Created", humanize.Time(pools.CreatedAt)},
				{"Train authors", count(len(pools.Train))},
				{"Validation authors", count(len(pools.Validation))},
			}))

			rows := make([][]string, 0, len(pools.Validation)+len(pools.Train))
			for i, author := range pools.Validation {
				rows = append(rows, []string{strconv.Itoa(i + 1), "validation", author})
			}
			if showTrain {
				for i, author := range pools.Train {
					rows = append(rows, []string{strconv.Itoa(i + 1), "train", author})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Pool", "Author"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTrain, "train", false, "Also list training authors")
	return cmd
}

func newSplitResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted split so the next build draws a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := pipeline.OpenStore(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Delete(cmd.Context(), cfg.Corpus.Source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Split for %s removed\n", cfg.Corpus.Source)
			return nil
		},
	}
}
