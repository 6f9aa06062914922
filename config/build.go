package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/dates"
	"github.com/pevans/tally/records"
)

// CalendarProvider builds the business-day calendar. An empty weekend list
// means Saturday and Sunday.
func (c *FileConfig) CalendarProvider() (*dates.StaticCalendar, error) {
	var weekend []time.Weekday
	for _, day := range c.Calendar.Weekend {
		wd, err := dates.ParseWeekday(day)
		if err != nil {
			return nil, fmt.Errorf("invalid weekend: %w", err)
		}
		weekend = append(weekend, wd)
	}
	return dates.NewStaticCalendar(weekend, c.Calendar.Holidays)
}

// Roster returns the initials to display name mapping.
func (c *FileConfig) Roster() records.Roster {
	return records.NewRoster(c.People)
}

// Extractor compiles the item patterns. Empty patterns mean the defaults.
func (c *FileConfig) Extractor(logger *slog.Logger) (*records.Extractor, error) {
	items := c.Scraper.ItemConfig
	return records.NewExtractorWithPatterns(items.Pattern, items.ExcludePattern, logger)
}

// AggregateOptions returns the aggregation options from the report section.
func (c *FileConfig) AggregateOptions(logger *slog.Logger) aggregate.Options {
	return aggregate.Options{
		MaxItems:    c.Report.MaxItems,
		PeriodRange: c.Report.PeriodRange,
		Logger:      logger,
	}
}
