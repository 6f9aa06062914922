package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one recorded scan batch.
type Run struct {
	RunID      uuid.UUID  `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Folders    int        `json:"folders"`
	Months     int        `json:"months"`
	Records    int        `json:"records"`
	LastError  *string    `json:"last_error,omitempty"`
}

// RunStats are the totals a scan reports when it finishes.
type RunStats struct {
	Folders int
	Months  int
	Records int
}

// StartRun records a new running scan and returns its ID.
func (s *CountStore) StartRun() (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.Exec(
		"INSERT INTO scan_runs (run_id, started_at, status) VALUES (?, ?, ?)",
		id.String(), formatTime(s.now()), RunRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert scan run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run with its totals. A non-nil runErr marks the run
// failed and stores the error text.
func (s *CountStore) FinishRun(runID uuid.UUID, stats RunStats, runErr error) error {
	status := RunCompleted
	var lastError any
	if runErr != nil {
		status = RunFailed
		lastError = runErr.Error()
	}

	result, err := s.db.Exec(`
		UPDATE scan_runs
		SET finished_at = ?, status = ?, folders = ?, months = ?, records = ?, last_error = ?
		WHERE run_id = ?
	`, formatTime(s.now()), status, stats.Folders, stats.Months, stats.Records, lastError, runID.String())
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *CountStore) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, started_at, finished_at, status, folders, months, records, last_error
		FROM scan_runs
		WHERE run_id = ?
	`, runID.String())

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan run: %w", err)
	}
	return run, nil
}

// ListRuns lists runs, newest first. A non-positive limit lists all of them.
func (s *CountStore) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, started_at, finished_at, status, folders, months, records, last_error
		FROM scan_runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun is a shared helper that parses a scan_runs row. It is used by
// GetRun and ListRuns.
func scanRun(row rowScanner) (*Run, error) {
	var runIDStr, startedAtStr, status string
	var finishedAtStr, lastError sql.NullString
	var run Run

	err := row.Scan(
		&runIDStr, &startedAtStr, &finishedAtStr, &status,
		&run.Folders, &run.Months, &run.Records, &lastError,
	)
	if err != nil {
		return nil, err
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	run.StartedAt = parseTime(startedAtStr)
	run.Status = status

	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if lastError.Valid {
		run.LastError = &lastError.String
	}
	return &run, nil
}
