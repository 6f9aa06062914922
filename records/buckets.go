package records

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/pevans/tally/dates"
)

// DailyBuckets maps each date to the accumulated count per initials.
type DailyBuckets map[dates.Date]map[string]int

// Collect merges records into buckets, adding counts for repeated
// (date, initials) pairs.
func Collect(records []CountRecord) DailyBuckets {
	b := make(DailyBuckets)
	for _, r := range records {
		b.add(r.Date, r.Initials, r.Count)
	}
	return b
}

func (b DailyBuckets) add(d dates.Date, initials string, count int) {
	day, ok := b[d]
	if !ok {
		day = make(map[string]int)
		b[d] = day
	}
	day[initials] += count
}

// Dates returns the bucket dates in ascending order.
func (b DailyBuckets) Dates() []dates.Date {
	out := slices.Collect(maps.Keys(b))
	slices.SortFunc(out, func(x, y dates.Date) int {
		return x.Time().Compare(y.Time())
	})
	return out
}

// Total returns the sum of every count in the buckets.
func (b DailyBuckets) Total() int {
	total := 0
	for _, day := range b {
		for _, n := range day {
			total += n
		}
	}
	return total
}

// Rollover returns new buckets in which every non-working day's counts have
// been added to the bucket of the next working day, and the non-working day's
// own bucket is gone. The input is left untouched.
func Rollover(cal dates.Calendar, b DailyBuckets) DailyBuckets {
	out := make(DailyBuckets, len(b))
	for _, d := range b.Dates() {
		target := d
		if cal.IsNonWorkingDay(d) {
			target = dates.NextWorkingDay(cal, d)
		}
		for initials, n := range b[d] {
			out.add(target, initials, n)
		}
	}
	return out
}

// RolloverSeries is Rollover for a series that already carries display
// names. Keys that are not "YYYY-MM-DD" dates stay where they are.
func RolloverSeries(cal dates.Calendar, s PersonSeries) PersonSeries {
	out := make(PersonSeries, len(s))
	for name, days := range s {
		rolled := make(map[string]int, len(days))
		for key, n := range days {
			if d, err := dates.ParseISO(key); err == nil && cal.IsNonWorkingDay(d) {
				key = dates.NextWorkingDay(cal, d).String()
			}
			rolled[key] += n
		}
		out[name] = rolled
	}
	return out
}

// Roster maps upper-case initials to a person's display name.
type Roster map[string]string

// NewRoster builds a Roster, upper-casing and trimming the initials keys.
func NewRoster(people map[string]string) Roster {
	r := make(Roster, len(people))
	for initials, name := range people {
		key := strings.ToUpper(strings.TrimSpace(initials))
		if key != "" {
			r[key] = strings.TrimSpace(name)
		}
	}
	return r
}

// Resolve returns the display name for initials.
func (r Roster) Resolve(initials string) (string, bool) {
	name, ok := r[strings.ToUpper(initials)]
	return name, ok && name != ""
}

// PersonSeries maps a person's display name to counts keyed by "YYYY-MM-DD".
type PersonSeries map[string]map[string]int

// CountTuple is the unit handed to the transport: one person's count on one
// day.
type CountTuple struct {
	PersonName string `json:"personName"`
	Date       string `json:"dateString"`
	Count      int    `json:"count"`
}

// BuildSeries resolves each bucket's initials to display names. Initials
// missing from the roster are logged and dropped. Two initials resolving to
// the same person are added together.
func BuildSeries(b DailyBuckets, roster Roster, logger *slog.Logger) PersonSeries {
	if logger == nil {
		logger = slog.Default()
	}

	series := make(PersonSeries)
	for _, d := range b.Dates() {
		day := b[d]
		for _, initials := range slices.Sorted(maps.Keys(day)) {
			name, ok := roster.Resolve(initials)
			if !ok {
				logger.Warn("dropped count for unknown initials",
					"initials", initials, "date", d.String(), "count", day[initials])
				continue
			}
			if series[name] == nil {
				series[name] = make(map[string]int)
			}
			series[name][d.String()] += day[initials]
		}
	}
	return series
}

// Tuples flattens the series, ordered by person then date.
func (s PersonSeries) Tuples() []CountTuple {
	var out []CountTuple
	for name, days := range s {
		for date, n := range days {
			out = append(out, CountTuple{PersonName: name, Date: date, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b CountTuple) int {
		return cmp.Or(strings.Compare(a.PersonName, b.PersonName), strings.Compare(a.Date, b.Date))
	})
	return out
}

// Merge adds other's counts into s.
func (s PersonSeries) Merge(other PersonSeries) {
	for name, days := range other {
		if s[name] == nil {
			s[name] = make(map[string]int)
		}
		for date, n := range days {
			s[name][date] += n
		}
	}
}
