package main

import (
	"fmt"
	"os"

	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/handoff"
	"github.com/pevans/tally/store"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var sourcePath string
	var periodRange, maxItems int
	var emit bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Roll stored counts up by month, person and folder",
		Long: `Report aggregates the stored counts, or a JSON source file given with
--source, over the most recent months.

The source file has the shape
  {"persons": {"<name>": {"<year>": {"<month>": {"<folder>": {"<date>": count}}}}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSource(a, sourcePath)
			if err != nil {
				return err
			}

			opts := a.cfg.AggregateOptions(a.logger)
			if cmd.Flags().Changed("periods") {
				opts.PeriodRange = periodRange
			}
			if cmd.Flags().Changed("max-items") {
				opts.MaxItems = maxItems
			}

			tree, err := aggregate.Optimize(src, opts)
			if err != nil {
				return err
			}

			if emit {
				dir, err := handoff.NewDir(a.cfg.Storage.Handoff.Dir)
				if err != nil {
					return err
				}
				if err := dir.Emit(handoff.AggregateMessage(tree)); err != nil {
					return err
				}
			}

			if a.json() {
				return printJSON(cmd.OutOrStdout(), tree)
			}
			printTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourcePath, "source", "", "aggregate this JSON source file instead of the count store")
	cmd.Flags().IntVar(&periodRange, "periods", 0, "number of most recent months to include")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "rows to show per ranking (0 for all)")
	cmd.Flags().BoolVar(&emit, "emit", false, "also write the result to the handoff directory")
	return cmd
}

func loadSource(a *app, path string) (*aggregate.Source, error) {
	if path == "" {
		cal, err := a.cfg.CalendarProvider()
		if err != nil {
			return nil, err
		}
		countStore, err := store.NewCountStore(a.cfg.Storage.Counts.DSN)
		if err != nil {
			return nil, err
		}
		defer countStore.Close()
		return countStore.Source(cal)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()
	return aggregate.DecodeSource(f)
}
