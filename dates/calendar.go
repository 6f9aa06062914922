package dates

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// maxSkip bounds NextWorkingDay so a calendar that marks every day as
// non-working cannot loop forever.
const maxSkip = 366

// Calendar decides which days are not business days.
type Calendar interface {
	IsNonWorkingDay(d Date) bool
}

// StaticCalendar is a fixed weekend rule plus a fixed set of holidays.
// Years with no configured holidays only lose their weekends.
type StaticCalendar struct {
	weekend  []time.Weekday
	holidays map[Date]struct{}
}

// DefaultWeekend is Saturday and Sunday.
var DefaultWeekend = []time.Weekday{time.Saturday, time.Sunday}

// NewStaticCalendar builds a calendar from weekend days and "YYYY-MM-DD"
// holiday strings. A nil weekend means DefaultWeekend.
func NewStaticCalendar(weekend []time.Weekday, holidays []string) (*StaticCalendar, error) {
	if weekend == nil {
		weekend = DefaultWeekend
	}

	cal := &StaticCalendar{
		weekend:  slices.Clone(weekend),
		holidays: make(map[Date]struct{}, len(holidays)),
	}
	for _, h := range holidays {
		d, err := ParseISO(h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday: %w", err)
		}
		cal.holidays[d] = struct{}{}
	}
	return cal, nil
}

// IsNonWorkingDay reports whether d is a weekend day or a holiday.
func (c *StaticCalendar) IsNonWorkingDay(d Date) bool {
	if slices.Contains(c.weekend, d.Weekday()) {
		return true
	}
	_, ok := c.holidays[d]
	return ok
}

// IsHoliday reports whether d is in the holiday set, regardless of weekday.
func (c *StaticCalendar) IsHoliday(d Date) bool {
	_, ok := c.holidays[d]
	return ok
}

// NextWorkingDay returns d itself when it is a working day, otherwise the
// first working day after it. Applying it to its own result is a no-op.
func NextWorkingDay(cal Calendar, d Date) Date {
	next := d
	for range maxSkip {
		if !cal.IsNonWorkingDay(next) {
			return next
		}
		next = next.AddDays(1)
	}
	return next
}

// ParseWeekday accepts English weekday names or their three-letter
// abbreviations.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if key == name || key == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
