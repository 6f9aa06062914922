package aggregate

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a zero-padded "YYYY-MM" month key. Build one with NewPeriod or
// ParsePeriod so string order stays chronological order.
type Period string

// NewPeriod returns the period for year and month, or an error when either
// is out of range.
func NewPeriod(year, month int) (Period, error) {
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d out of range", month)
	}
	return Period(fmt.Sprintf("%04d-%02d", year, month)), nil
}

// ParsePeriod accepts "YYYY-MM" or "YYYY-M" and returns the padded period.
func ParsePeriod(s string) (Period, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return "", fmt.Errorf("invalid period %q", s)
	}
	return periodFromKeys(year, month)
}

// periodFromKeys builds a period from the year and month keys used in a
// Source.
func periodFromKeys(yearKey, monthKey string) (Period, error) {
	y, err := strconv.Atoi(strings.TrimSpace(yearKey))
	if err != nil {
		return "", fmt.Errorf("invalid year %q", yearKey)
	}
	m, err := strconv.Atoi(strings.TrimSpace(monthKey))
	if err != nil {
		return "", fmt.Errorf("invalid month %q", monthKey)
	}
	return NewPeriod(y, m)
}

// String returns the "YYYY-MM" form.
func (p Period) String() string {
	return string(p)
}
