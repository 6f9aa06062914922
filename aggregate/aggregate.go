// Package aggregate rolls per-person, per-day counts into the month, person,
// folder and overall views a dashboard reads.
package aggregate

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
)

// DefaultPeriodRange is the number of most recent months kept when
// Options.PeriodRange is not set.
const DefaultPeriodRange = 12

// Options controls an Optimize call.
type Options struct {
	// MaxItems is a display hint for presentation layers. Optimize does not
	// truncate anything with it.
	MaxItems int
	// PeriodRange is how many of the most recent months to keep.
	PeriodRange int
	Logger      *slog.Logger
}

// Overall holds the grand totals.
type Overall struct {
	TotalItems   int            `json:"totalItems"`
	FolderTotals map[string]int `json:"folderTotals"`
	PersonTotals map[string]int `json:"personTotals"`
}

// Tree is the full set of rollups for one Optimize call.
type Tree struct {
	// Periods are the months in scope, newest first.
	Periods  []Period                             `json:"periods"`
	MaxItems int                                  `json:"maxItems"`
	ByMonth  map[Period]map[string]int            `json:"byMonth"`
	ByPerson map[string]map[Period]map[string]int `json:"byPerson"`
	ByFolder map[string]map[Period]int            `json:"byFolder"`
	Overall  Overall                              `json:"overall"`
}

// Ranked is a name with its total, used by the Top helpers.
type Ranked struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// Optimize builds a fresh Tree from src. It keeps only the PeriodRange most
// recent months present in the data and skips folders whose month total is
// not positive. A nil source or one without persons yields ErrInvalidSource.
// Nothing is cached between calls.
func Optimize(src *Source, opts Options) (*Tree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if src == nil || src.Persons == nil {
		logger.Warn("aggregation source has no persons mapping")
		return nil, fmt.Errorf("%w: missing persons", ErrInvalidSource)
	}

	periodRange := opts.PeriodRange
	if periodRange <= 0 {
		periodRange = DefaultPeriodRange
	}

	inScope := selectPeriods(src, periodRange, logger)

	tree := &Tree{
		Periods:  inScope,
		MaxItems: opts.MaxItems,
		ByMonth:  make(map[Period]map[string]int),
		ByPerson: make(map[string]map[Period]map[string]int),
		ByFolder: make(map[string]map[Period]int),
		Overall: Overall{
			FolderTotals: make(map[string]int),
			PersonTotals: make(map[string]int),
		},
	}

	keep := make(map[Period]struct{}, len(inScope))
	for _, p := range inScope {
		keep[p] = struct{}{}
	}

	for person, years := range src.Persons {
		for yearKey, months := range years {
			for monthKey, folders := range months {
				period, err := periodFromKeys(yearKey, monthKey)
				if err != nil {
					continue
				}
				if _, ok := keep[period]; !ok {
					continue
				}
				for folder, days := range folders {
					count := sumDays(days, logger.With("person", person, "folder", folder))
					if count <= 0 {
						continue
					}
					tree.add(person, period, folder, count)
				}
			}
		}
	}

	logger.Debug("aggregated source",
		"persons", len(src.Persons), "periods", len(inScope), "total", tree.Overall.TotalItems)
	return tree, nil
}

// selectPeriods returns the distinct periods in src, newest first, capped at
// limit. Keys that are not valid years or months are logged and ignored.
func selectPeriods(src *Source, limit int, logger *slog.Logger) []Period {
	seen := make(map[Period]struct{})
	for person, years := range src.Persons {
		for yearKey, months := range years {
			for monthKey := range months {
				p, err := periodFromKeys(yearKey, monthKey)
				if err != nil {
					logger.Warn("skipped month with invalid key",
						"person", person, "year", yearKey, "month", monthKey, "error", err)
					continue
				}
				seen[p] = struct{}{}
			}
		}
	}

	periods := slices.Sorted(maps.Keys(seen))
	slices.Reverse(periods)
	if len(periods) > limit {
		periods = periods[:limit]
	}
	return periods
}

// maxCount is the largest folder count kept; float64 holds every integer up
// to it exactly.
const maxCount = 1 << 53

// sumDays adds the day values and rounds the sum to the nearest integer.
// Fractional day values and sums beyond maxCount are logged.
func sumDays(days DateCounts, logger *slog.Logger) int {
	var total float64
	for date, c := range days {
		v := c.Value()
		if v != math.Trunc(v) {
			logger.Warn("non-integral count", "date", date, "value", v)
		}
		total += v
	}

	total = math.Round(total)
	switch {
	case total <= 0:
		return 0
	case total > maxCount:
		logger.Warn("count too large, clamped", "value", total, "max", maxCount)
		return maxCount
	}
	return int(total)
}

func (t *Tree) add(person string, period Period, folder string, count int) {
	if t.ByMonth[period] == nil {
		t.ByMonth[period] = make(map[string]int)
	}
	t.ByMonth[period][folder] += count

	if t.ByPerson[person] == nil {
		t.ByPerson[person] = make(map[Period]map[string]int)
	}
	if t.ByPerson[person][period] == nil {
		t.ByPerson[person][period] = make(map[string]int)
	}
	t.ByPerson[person][period][folder] += count

	if t.ByFolder[folder] == nil {
		t.ByFolder[folder] = make(map[Period]int)
	}
	t.ByFolder[folder][period] += count

	t.Overall.TotalItems += count
	t.Overall.FolderTotals[folder] += count
	t.Overall.PersonTotals[person] += count
}

// TopFolders returns up to n folders by total, largest first. n <= 0 means
// all of them.
func (t *Tree) TopFolders(n int) []Ranked {
	return rank(t.Overall.FolderTotals, n)
}

// TopPeople returns up to n people by total, largest first. n <= 0 means all
// of them.
func (t *Tree) TopPeople(n int) []Ranked {
	return rank(t.Overall.PersonTotals, n)
}

func rank(totals map[string]int, n int) []Ranked {
	out := make([]Ranked, 0, len(totals))
	for name, total := range totals {
		out = append(out, Ranked{Name: name, Total: total})
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		return cmp.Or(cmp.Compare(b.Total, a.Total), strings.Compare(a.Name, b.Name))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
