package main

import (
	"fmt"

	"github.com/pevans/tally/handoff"
	"github.com/pevans/tally/scan"
	"github.com/pevans/tally/store"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	var only []string
	var monthLimit int
	var noHandoff bool

	cmd := &cobra.Command{
		Use:   "scan [listing-url]",
		Short: "Scan every folder and month and store the counts",
		Long: `Scan reads the folder listing, each folder's monthly pages and their
items. Counts are saved to the count store, replacing earlier counts for the
same person, folder and day, and result messages are written to the handoff
directory.

A page that cannot be read ends the scan. Folders finished before the
failure keep their stored counts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := a.rootURL(args)
			if err != nil {
				return err
			}

			countStore, err := store.NewCountStore(a.cfg.Storage.Counts.DSN)
			if err != nil {
				return err
			}
			defer countStore.Close()

			var sink scan.Sink
			if !noHandoff {
				dir, err := handoff.NewDir(a.cfg.Storage.Handoff.Dir)
				if err != nil {
					return err
				}
				sink = dir
			}

			cal, err := a.cfg.CalendarProvider()
			if err != nil {
				return err
			}
			extractor, err := a.cfg.Extractor(a.logger)
			if err != nil {
				return err
			}

			scraperConfig := a.cfg.Scraper
			scanConfig := &scan.Config{
				RootURL:    url,
				Scraper:    &scraperConfig,
				Calendar:   cal,
				Roster:     a.cfg.Roster(),
				Extractor:  extractor,
				Only:       a.cfg.Scan.Only,
				MonthLimit: a.cfg.Scan.MonthLimit,
			}
			if cmd.Flags().Changed("only") {
				scanConfig.Only = only
			}
			if cmd.Flags().Changed("months") {
				scanConfig.MonthLimit = monthLimit
			}

			svc := scan.NewService(a.pages(), sink, countStore, scanConfig, a.logger)
			result, runErr := svc.Run(cmd.Context())

			if a.json() {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printScanResult(cmd.OutOrStdout(), result)
			}

			if runErr != nil {
				return fmt.Errorf("scan %s failed: %w", result.RunID, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "scan only these folders (by name)")
	cmd.Flags().IntVar(&monthLimit, "months", 0, "scan only the most recent N months of each folder")
	cmd.Flags().BoolVar(&noHandoff, "no-handoff", false, "do not write result messages")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded scan runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			countStore, err := store.NewCountStore(a.cfg.Storage.Counts.DSN)
			if err != nil {
				return err
			}
			defer countStore.Close()

			runs, err := countStore.ListRuns(limit)
			if err != nil {
				return err
			}

			if a.json() {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")
	return cmd
}
