package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/ld-enricher/models"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// StartRun inserts a run in the running state.
func (db *DB) StartRun(run models.Run) error {
	status := run.Status
	if status == "" {
		status = models.RunStatusRunning
	}
	_, err := db.Exec(`
		INSERT INTO runs (run_id, file_name, start_index, end_index, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunID, run.FileName, run.Start, run.End, run.StartedAt.UTC().Format(timeLayout), status)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecordAttempt appends one processed index to a run.
func (db *DB) RecordAttempt(a models.Attempt) error {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO attempts (run_id, record_index, url, outcome, status_code, message, duration_ms, from_cache, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.RunID, a.Index, a.URL, a.Outcome, a.StatusCode, a.Message, a.DurationMs, a.FromCache, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// FinishRun stores the final status and summary of a run.
func (db *DB) FinishRun(runID, status string, summary models.RunSummary) error {
	res, err := db.Exec(`
		UPDATE runs SET
			finished_at = ?, status = ?,
			visited = ?, skipped = ?, enriched = ?, no_metadata = ?, malformed = ?,
			missing_url = ?, http_errors = ?, timeouts = ?, network_errors = ?,
			cache_hits = ?, next_index = ?
		WHERE run_id = ?
	`, time.Now().UTC().Format(timeLayout), status,
		summary.Visited, summary.Skipped, summary.Enriched, summary.NoMetadata, summary.Malformed,
		summary.MissingURL, summary.HTTPErrors, summary.Timeouts, summary.NetworkErrors,
		summary.CacheHits, summary.NextIndex, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, file_name, start_index, end_index, started_at, finished_at, status,
	visited, skipped, enriched, no_metadata, malformed, missing_url, http_errors, timeouts,
	network_errors, cache_hits, next_index`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (models.Run, error) {
	var (
		run        models.Run
		startedAt  string
		finishedAt sql.NullString
		s          = &run.Summary
	)
	err := row.Scan(&run.RunID, &run.FileName, &run.Start, &run.End, &startedAt, &finishedAt, &run.Status,
		&s.Visited, &s.Skipped, &s.Enriched, &s.NoMetadata, &s.Malformed, &s.MissingURL, &s.HTTPErrors,
		&s.Timeouts, &s.NetworkErrors, &s.CacheHits, &s.NextIndex)
	if err != nil {
		return run, err
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return run, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return run, fmt.Errorf("invalid finished_at %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &t
	}
	return run, nil
}

// GetRun returns a run by id.
func (db *DB) GetRun(runID string) (*models.Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetAttempts returns the attempts of a run in index order.
func (db *DB) GetAttempts(runID string) ([]models.Attempt, error) {
	rows, err := db.Query(`
		SELECT run_id, record_index, url, outcome, status_code, message, duration_ms, from_cache, attempted_at
		FROM attempts WHERE run_id = ?
		ORDER BY record_index, attempt_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var (
			a          models.Attempt
			url, msg   sql.NullString
			statusCode sql.NullInt64
			duration   sql.NullInt64
			at         string
		)
		if err := rows.Scan(&a.RunID, &a.Index, &url, &a.Outcome, &statusCode, &msg, &duration, &a.FromCache, &at); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.URL = url.String
		a.Message = msg.String
		a.StatusCode = int(statusCode.Int64)
		a.DurationMs = duration.Int64
		if a.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("invalid attempted_at %q: %w", at, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
