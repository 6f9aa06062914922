// Package store persists person/folder/day counts and scan runs in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/dates"
	"github.com/pevans/tally/records"
)

// Custom errors for store operations
var (
	ErrRunNotFound  = errors.New("scan run not found")
	ErrEmptyFolder  = errors.New("folder name must not be empty")
	ErrInvalidCount = errors.New("count must be positive")
)

// CountStore manages counts and scan runs using SQLite.
type CountStore struct {
	db  *sql.DB
	now func() time.Time
}

// Count is one stored (person, folder, day) cell. Date is the day the items
// were recorded, before rollover.
type Count struct {
	Person    string     `json:"person"`
	Folder    string     `json:"folder"`
	Date      dates.Date `json:"date"`
	Count     int        `json:"count"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CountFilter represents filtering options for listing counts. From and To
// are inclusive; zero dates mean unbounded.
type CountFilter struct {
	Person *string
	Folder *string
	From   dates.Date
	To     dates.Date
	Limit  int
}

// NewCountStore creates a new count store with the given database path.
func NewCountStore(dbPath string) (*CountStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &CountStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the counts and scan_runs tables if they don't exist.
func (s *CountStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS counts (
		person TEXT NOT NULL,
		folder TEXT NOT NULL,
		date TEXT NOT NULL,
		count INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (person, folder, date)
	);
	CREATE INDEX IF NOT EXISTS idx_counts_date ON counts(date);
	CREATE TABLE IF NOT EXISTS scan_runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		folders INTEGER DEFAULT 0,
		months INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0,
		last_error TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *CountStore) Close() error {
	return s.db.Close()
}

// PutSeries stores a folder's series of counts on the day they were
// recorded, before any rollover. Every cell the folder holds in the listed
// months is replaced by the series in one transaction, so a re-scan neither
// doubles counts nor keeps cells for names that left a page. Cells outside
// the listed months are upserted.
func (s *CountStore) PutSeries(folder string, months []aggregate.Period, series records.PersonSeries) error {
	if strings.TrimSpace(folder) == "" {
		return ErrEmptyFolder
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, month := range months {
		period, err := aggregate.ParsePeriod(string(month))
		if err != nil {
			return fmt.Errorf("invalid month for %s: %w", folder, err)
		}
		if _, err := tx.Exec(
			"DELETE FROM counts WHERE folder = ? AND substr(date, 1, 7) = ?",
			folder, period.String(),
		); err != nil {
			return fmt.Errorf("failed to clear month %s: %w", month, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO counts (person, folder, date, count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (person, folder, date)
		DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	updatedAt := formatTime(s.now())
	for _, tuple := range series.Tuples() {
		if tuple.Count <= 0 {
			return fmt.Errorf("%w: %s on %s", ErrInvalidCount, tuple.PersonName, tuple.Date)
		}
		if _, err := dates.ParseISO(tuple.Date); err != nil {
			return fmt.Errorf("invalid date for %s: %w", tuple.PersonName, err)
		}
		if _, err := stmt.Exec(tuple.PersonName, folder, tuple.Date, tuple.Count, updatedAt); err != nil {
			return fmt.Errorf("failed to store count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit counts: %w", err)
	}
	return nil
}

// ListCounts lists counts with optional filtering, ordered by date, person
// and folder.
func (s *CountStore) ListCounts(filter CountFilter) ([]Count, error) {
	query := `SELECT person, folder, date, count, updated_at FROM counts`

	var whereClauses []string
	var args []any

	if filter.Person != nil {
		whereClauses = append(whereClauses, "person = ?")
		args = append(args, *filter.Person)
	}
	if filter.Folder != nil {
		whereClauses = append(whereClauses, "folder = ?")
		args = append(args, *filter.Folder)
	}
	if !filter.From.IsZero() {
		whereClauses = append(whereClauses, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		whereClauses = append(whereClauses, "date <= ?")
		args = append(args, filter.To.String())
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY date, person, folder"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var c Count
		var dateStr, updatedAtStr string
		if err := rows.Scan(&c.Person, &c.Folder, &dateStr, &c.Count, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		d, err := dates.ParseISO(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date: %w", err)
		}
		c.Date = d
		c.UpdatedAt = parseTime(updatedAtStr)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteFolder removes every count stored for folder and returns how many
// cells were removed.
func (s *CountStore) DeleteFolder(folder string) (int64, error) {
	result, err := s.db.Exec("DELETE FROM counts WHERE folder = ?", folder)
	if err != nil {
		return 0, fmt.Errorf("failed to delete counts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// Source loads every stored count into an aggregation source. Counts are
// stored on the day they were recorded; Source moves each folder's
// non-working-day counts to the next working day of cal, adding them to what
// is already there. A nil cal means a Saturday and Sunday weekend. An empty
// store yields a source with an empty persons mapping.
func (s *CountStore) Source(cal dates.Calendar) (*aggregate.Source, error) {
	if cal == nil {
		weekend, err := dates.NewStaticCalendar(nil, nil)
		if err != nil {
			return nil, err
		}
		cal = weekend
	}

	counts, err := s.ListCounts(CountFilter{})
	if err != nil {
		return nil, err
	}

	byFolder := make(map[string]records.PersonSeries)
	for _, c := range counts {
		series := byFolder[c.Folder]
		if series == nil {
			series = make(records.PersonSeries)
			byFolder[c.Folder] = series
		}
		series.Merge(records.PersonSeries{c.Person: {c.Date.String(): c.Count}})
	}

	src := &aggregate.Source{Persons: make(map[string]aggregate.YearMonths)}
	for folder, series := range byFolder {
		for _, tuple := range records.RolloverSeries(cal, series).Tuples() {
			d, err := dates.ParseISO(tuple.Date)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stored date: %w", err)
			}
			src.Add(tuple.PersonName, folder, d.Year, int(d.Month), tuple.Date, float64(tuple.Count))
		}
	}
	return src, nil
}

// Helper functions for time formatting
func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.UTC().Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
