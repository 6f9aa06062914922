// Package scan runs one batch pass over the source pages: folder listing,
// then each folder's monthly pages, then the dated items on each month.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/dates"
	"github.com/pevans/tally/handoff"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/normalize"
	"github.com/pevans/tally/records"
	"github.com/pevans/tally/scraper"
	"github.com/pevans/tally/store"
)

// ErrNoFolders is returned when the folder listing yields no folder targets.
var ErrNoFolders = errors.New("no folders found")

// PageSource hands out parsed pages by URL.
type PageSource interface {
	Page(ctx context.Context, url string) (*scraper.Page, error)
}

// Sink receives result messages as they are produced.
type Sink interface {
	Emit(msg handoff.Message) error
}

// CountWriter stores a folder's person series as recorded, before rollover.
// The months are the ones the series covers in full.
type CountWriter interface {
	PutSeries(folder string, months []aggregate.Period, series records.PersonSeries) error
}

// RunRecorder records scan runs. A CountWriter that also implements it gets
// every run recorded.
type RunRecorder interface {
	StartRun() (uuid.UUID, error)
	FinishRun(runID uuid.UUID, stats store.RunStats, runErr error) error
}

// Config holds what a scan needs to know about the source system.
type Config struct {
	// RootURL is the folder listing page.
	RootURL  string
	Scraper  *scraper.ScraperConfig
	Calendar dates.Calendar
	Roster   records.Roster
	// Extractor overrides the default item grammar.
	Extractor *records.Extractor
	// Only limits the scan to these folder names, compared case- and
	// accent-insensitively. Empty means every folder.
	Only []string
	// MonthLimit keeps only the most recent months of each folder. Zero
	// means all of them.
	MonthLimit int
}

// Result is what a scan gathered. On a fatal error it holds everything
// gathered before the failure, and Err holds the cause.
type Result struct {
	RunID   uuid.UUID                       `json:"run_id"`
	Folders []links.FolderTarget            `json:"folders"`
	Months  map[string][]links.MonthTarget  `json:"months"`
	Series  map[string]records.PersonSeries `json:"series"`
	Stats   store.RunStats                  `json:"stats"`
	Err     error                           `json:"-"`
}

// Service runs scan batches.
type Service struct {
	pages     PageSource
	sink      Sink
	counts    CountWriter
	config    *Config
	extractor *records.Extractor
	logger    *slog.Logger
}

// NewService creates a scan service. The sink and count writer are optional.
func NewService(pages PageSource, sink Sink, counts CountWriter, config *Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		config = &Config{}
	}
	if config.Scraper == nil {
		config.Scraper = scraper.NewScraperConfig()
	}
	if config.Calendar == nil {
		config.Calendar, _ = dates.NewStaticCalendar(nil, nil)
	}

	extractor := config.Extractor
	if extractor == nil {
		extractor = records.NewExtractor(logger)
	}

	return &Service{
		pages:     pages,
		sink:      sink,
		counts:    counts,
		config:    config,
		extractor: extractor,
		logger:    logger,
	}
}

// Run performs one pass. It always returns a Result; the error, when
// non-nil, is also stored in Result.Err. A panic inside the pass is
// recovered and reported as an error.
func (s *Service) Run(ctx context.Context) (result *Result, err error) {
	result = &Result{
		Months: make(map[string][]links.MonthTarget),
		Series: make(map[string]records.PersonSeries),
	}
	start := time.Now()

	recorder, _ := s.counts.(RunRecorder)
	if recorder != nil {
		runID, startErr := recorder.StartRun()
		if startErr != nil {
			result.Err = fmt.Errorf("failed to start run: %w", startErr)
			return result, result.Err
		}
		result.RunID = runID
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
		result.Err = err

		if err != nil {
			s.logger.Error("scan failed", "run_id", result.RunID, "error", err)
		} else {
			s.logger.Info("scan finished", "run_id", result.RunID,
				"folders", result.Stats.Folders, "months", result.Stats.Months,
				"records", result.Stats.Records, "duration", time.Since(start))
		}

		if recorder != nil {
			if finishErr := recorder.FinishRun(result.RunID, result.Stats, err); finishErr != nil {
				s.logger.Error("failed to record run", "run_id", result.RunID, "error", finishErr)
			}
		}
	}()

	folders, err := s.folders(ctx)
	if err != nil {
		return result, err
	}
	result.Folders = folders

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.scanFolder(ctx, folder, result); err != nil {
			return result, fmt.Errorf("folder %s: %w", folder.Name, err)
		}
		result.Stats.Folders++
	}

	return result, nil
}

// folders reads the listing page and returns the folder targets in scope.
func (s *Service) folders(ctx context.Context) ([]links.FolderTarget, error) {
	page, err := s.pages.Page(ctx, s.config.RootURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder listing: %w", err)
	}

	fc := s.config.Scraper.FolderConfig
	candidates, strategy := page.Links(fc.Selectors)
	s.logger.Debug("found folder candidates", "url", page.URL, "strategy", strategy, "count", len(candidates))

	classifier := &links.Classifier{
		Origin:        page.URL,
		PathPatterns:  fc.PathPatterns,
		MinNameLength: fc.MinNameLength,
		MaxNameLength: fc.MaxNameLength,
		Logger:        s.logger,
	}
	folders := s.only(classifier.ClassifyFolders(candidates))

	if err := s.emit(handoff.FoldersMessage(folders)); err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, ErrNoFolders
	}
	return folders, nil
}

func (s *Service) only(folders []links.FolderTarget) []links.FolderTarget {
	if len(s.config.Only) == 0 {
		return folders
	}

	wanted := make([]string, 0, len(s.config.Only))
	for _, name := range s.config.Only {
		wanted = append(wanted, normalize.Fold(name))
	}
	return slices.DeleteFunc(folders, func(f links.FolderTarget) bool {
		return !slices.Contains(wanted, normalize.Fold(f.Name))
	})
}

// scanFolder reads every monthly page of folder and stores the folder's
// series as recorded. The result and the counts message carry the series
// after rollover over the whole folder, so a weekend at the end of one month
// lands on the first working day of the next.
func (s *Service) scanFolder(ctx context.Context, folder links.FolderTarget, result *Result) error {
	page, err := s.pages.Page(ctx, folder.URL)
	if err != nil {
		return fmt.Errorf("failed to read folder page: %w", err)
	}

	candidates, _ := page.Links(s.config.Scraper.MonthConfig.Selectors)
	classifier := &links.Classifier{Origin: page.URL, Logger: s.logger}
	months := classifier.ClassifyMonths(candidates)
	if s.config.MonthLimit > 0 && len(months) > s.config.MonthLimit {
		months = months[:s.config.MonthLimit]
	}
	result.Months[folder.Name] = months

	if err := s.emit(handoff.MonthsMessage(folder.Name, months)); err != nil {
		return err
	}

	var gathered []records.CountRecord
	var scanned []aggregate.Period
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return err
		}

		monthPage, err := s.pages.Page(ctx, month.URL)
		if err != nil {
			return fmt.Errorf("failed to read month %s: %w", month.Key(), err)
		}

		recs := s.extractor.Extract(monthPage.Items(s.config.Scraper.ItemConfig.Selector))
		s.logger.Debug("extracted month", "folder", folder.Name, "month", month.Key(), "records", len(recs))
		gathered = append(gathered, recs...)
		if period, err := aggregate.NewPeriod(month.Year, month.Month); err == nil {
			scanned = append(scanned, period)
		}
		result.Stats.Months++
		result.Stats.Records += len(recs)
	}

	recorded := records.BuildSeries(records.Collect(gathered), s.config.Roster, s.logger)
	series := records.RolloverSeries(s.config.Calendar, recorded)
	result.Series[folder.Name] = series

	if s.counts != nil {
		if err := s.counts.PutSeries(folder.Name, scanned, recorded); err != nil {
			return fmt.Errorf("failed to store counts: %w", err)
		}
	}
	if err := s.emit(handoff.CountsMessage(folder.Name, series.Tuples())); err != nil {
		return err
	}

	s.logger.Info("scanned folder", "folder", folder.Name, "months", len(months), "records", len(gathered))
	return nil
}

func (s *Service) emit(msg handoff.Message) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.Emit(msg); err != nil {
		return fmt.Errorf("failed to emit %s message: %w", msg.Kind, err)
	}
	return nil
}
