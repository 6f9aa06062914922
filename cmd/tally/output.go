package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/handoff"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/records"
	"github.com/pevans/tally/scan"
	"github.com/pevans/tally/store"
)

// printJSON prints v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printFolders(w io.Writer, folders []links.FolderTarget) {
	if len(folders) == 0 {
		fmt.Fprintln(w, "No folders found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tURL")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.URL)
	}
	tw.Flush()
}

func printMonths(w io.Writer, months []links.MonthTarget) {
	if len(months) == 0 {
		fmt.Fprintln(w, "No monthly pages found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tURL")
	for _, m := range months {
		fmt.Fprintf(tw, "%s\t%s\n", m.Key(), m.URL)
	}
	tw.Flush()
}

func printTuples(w io.Writer, tuples []records.CountTuple) {
	if len(tuples) == 0 {
		fmt.Fprintln(w, "No counts extracted.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "PERSON\tDATE\tCOUNT")
	for _, t := range tuples {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.PersonName, t.Date, t.Count)
	}
	tw.Flush()
}

func printScanResult(w io.Writer, result *scan.Result) {
	fmt.Fprintf(w, "Run %s: %d folders, %d months, %d records\n\n",
		result.RunID, result.Stats.Folders, result.Stats.Months, result.Stats.Records)

	tw := newTable(w)
	fmt.Fprintln(tw, "FOLDER\tMONTHS\tPEOPLE\tTOTAL")
	for _, f := range result.Folders {
		series, scanned := result.Series[f.Name]
		if !scanned {
			fmt.Fprintf(tw, "%s\t-\t-\tnot scanned\n", f.Name)
			continue
		}
		total := 0
		for _, t := range series.Tuples() {
			total += t.Count
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", f.Name, len(result.Months[f.Name]), len(series), total)
	}
	tw.Flush()

	if result.Err != nil {
		fmt.Fprintf(w, "\nStopped early: %v\n", result.Err)
	}
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No scan runs recorded.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tFOLDERS\tMONTHS\tRECORDS\tERROR")
	for _, r := range runs {
		lastError := ""
		if r.LastError != nil {
			lastError = *r.LastError
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID.String()[:8], r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Status, r.Folders, r.Months, r.Records, lastError)
	}
	tw.Flush()
}

// printTree prints the overall rankings and the per-month folder totals.
// MaxItems limits the rankings.
func printTree(w io.Writer, tree *aggregate.Tree) {
	if len(tree.Periods) == 0 {
		fmt.Fprintln(w, "No counts to report.")
		return
	}

	fmt.Fprintf(w, "Total items: %d (%s to %s)\n\n",
		tree.Overall.TotalItems, tree.Periods[len(tree.Periods)-1], tree.Periods[0])

	tw := newTable(w)
	fmt.Fprintln(tw, "FOLDER\tTOTAL")
	for _, r := range tree.TopFolders(tree.MaxItems) {
		fmt.Fprintf(tw, "%s\t%d\n", r.Name, r.Total)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PERSON\tTOTAL")
	for _, r := range tree.TopPeople(tree.MaxItems) {
		fmt.Fprintf(tw, "%s\t%d\n", r.Name, r.Total)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MONTH\tFOLDER\tTOTAL")
	for _, p := range tree.Periods {
		folders := tree.ByMonth[p]
		names := make([]string, 0, len(folders))
		for name := range folders {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", p, name, folders[name])
		}
	}
	tw.Flush()
}

func printMessages(w io.Writer, messages []handoff.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tKIND\tFOLDER\tCREATED")
	for _, m := range messages {
		folder := m.Folder
		if folder == "" {
			folder = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Kind, folder, m.CreatedAt.Local().Format(time.DateTime))
	}
	tw.Flush()
}
