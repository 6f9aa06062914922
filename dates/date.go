// Package dates parses the loosely formatted dates found on work-item pages
// and answers business-day questions against an injected calendar.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Layout is the canonical string form of a Date.
const Layout = "2006-01-02"

// Date is a calendar day with no time or zone. All arithmetic happens in UTC
// so the weekday never depends on the machine's local zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the Date for the given components. Out-of-range values are
// normalized the way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar day of t as seen in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseISO parses a "YYYY-MM-DD" string.
func ParseISO(s string) (Date, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseISO(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse reads a day/month/year string such as "05/01/25" or "5 / 1 / 2025".
// Whitespace is removed before splitting on "/". Two-digit years are taken
// as 2000+YY. It reports false for anything other than three numeric
// components or for a day that does not exist.
func Parse(raw string) (Date, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	parts := strings.Split(compact, "/")
	if len(parts) != 3 {
		return Date{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || strings.ContainsFunc(p, notDigit) {
			return Date{}, false
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, false
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return Date{}, false
	}

	if month < 1 || month > 12 || day < 1 {
		return Date{}, false
	}

	d := New(year, time.Month(month), day)
	if d.Day != day || int(d.Month) != month {
		return Date{}, false
	}
	return d, true
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
