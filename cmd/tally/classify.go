package main

import (
	"fmt"
	"slices"

	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/records"
	"github.com/pevans/tally/store"
	"github.com/spf13/cobra"
)

func newFoldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "folders [listing-url]",
		Short: "List the folder targets on the folder listing page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := a.rootURL(args)
			if err != nil {
				return err
			}

			page, err := a.pages().Page(cmd.Context(), url)
			if err != nil {
				return err
			}

			fc := a.cfg.Scraper.FolderConfig
			candidates, strategy := page.Links(fc.Selectors)
			a.logger.Debug("found folder candidates", "strategy", strategy, "count", len(candidates))

			classifier := &links.Classifier{
				Origin:        page.URL,
				PathPatterns:  fc.PathPatterns,
				MinNameLength: fc.MinNameLength,
				MaxNameLength: fc.MaxNameLength,
				Logger:        a.logger,
			}
			folders := classifier.ClassifyFolders(candidates)

			if a.json() {
				return printJSON(cmd.OutOrStdout(), links.FolderResult{Success: true, Folders: folders})
			}
			printFolders(cmd.OutOrStdout(), folders)
			return nil
		},
	}
}

func newMonthsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months <folder-url>",
		Short: "List the monthly pages linked from a folder page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.pages().Page(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			candidates, _ := page.Links(a.cfg.Scraper.MonthConfig.Selectors)
			classifier := &links.Classifier{Origin: page.URL, Logger: a.logger}
			months := classifier.ClassifyMonths(candidates)

			if a.json() {
				return printJSON(cmd.OutOrStdout(), links.MonthResult{Success: true, Months: months})
			}
			printMonths(cmd.OutOrStdout(), months)
			return nil
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var noRollover, save bool
	var folder, month string

	cmd := &cobra.Command{
		Use:   "extract <month-url>",
		Short: "Extract per-person daily counts from a monthly page",
		Long: `Extract reads the dated items on one monthly page, moves counts from
non-working days to the next working day and resolves initials to names.

With --store the counts are saved under --folder on the day they were
recorded; rollover is applied again when a report is built. The stored
counts replace the folder's counts for --month, or for every month the page
has items in when --month is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.pages().Page(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			extractor, err := a.cfg.Extractor(a.logger)
			if err != nil {
				return err
			}
			recs := extractor.Extract(page.Items(a.cfg.Scraper.ItemConfig.Selector))

			recorded := records.BuildSeries(records.Collect(recs), a.cfg.Roster(), a.logger)
			series := recorded
			if !noRollover {
				cal, err := a.cfg.CalendarProvider()
				if err != nil {
					return err
				}
				series = records.RolloverSeries(cal, recorded)
			}

			if save {
				if folder == "" {
					return fmt.Errorf("--store needs --folder")
				}
				months, err := storedMonths(month, recs)
				if err != nil {
					return err
				}
				countStore, err := store.NewCountStore(a.cfg.Storage.Counts.DSN)
				if err != nil {
					return err
				}
				defer countStore.Close()
				if err := countStore.PutSeries(folder, months, recorded); err != nil {
					return err
				}
			}

			if a.json() {
				return printJSON(cmd.OutOrStdout(), series.Tuples())
			}
			printTuples(cmd.OutOrStdout(), series.Tuples())
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRollover, "no-rollover", false, "keep counts on the day they were recorded")
	cmd.Flags().StringVar(&folder, "folder", "", "folder name the counts belong to")
	cmd.Flags().BoolVar(&save, "store", false, "save the counts to the count store")
	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM) the page covers, replaced in the count store")
	return cmd
}

// storedMonths returns the months an extract replaces in the count store:
// the one given, or else every month the records fall in.
func storedMonths(month string, recs []records.CountRecord) ([]aggregate.Period, error) {
	if month != "" {
		period, err := aggregate.ParsePeriod(month)
		if err != nil {
			return nil, fmt.Errorf("invalid --month: %w", err)
		}
		return []aggregate.Period{period}, nil
	}

	var months []aggregate.Period
	for _, r := range recs {
		period, err := aggregate.NewPeriod(r.Date.Year, int(r.Date.Month))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(months, period) {
			months = append(months, period)
		}
	}
	return months, nil
}
