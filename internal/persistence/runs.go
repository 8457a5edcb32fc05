package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// orNow substitutes insert time for records that carry no timestamp
// of their own.
func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// SaveRun saves or updates a run record. The record's own start time
// is stored, so rows reflect when the run started rather than when
// the row was written. Uses ON CONFLICT to make saves idempotent.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, tree, seed, finished, result, aborted, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario = excluded.scenario,
			tree = excluded.tree,
			seed = excluded.seed,
			finished = excluded.finished,
			result = excluded.result,
			aborted = excluded.aborted,
			error = excluded.error
	`, run.ID, run.Scenario, run.Tree, run.Seed, run.Finished, run.Result, run.Aborted, run.Error, orNow(run.StartedAt))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// FinishRun marks a run as finished with its outcome, stamped with
// the time the run actually ended.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, result, aborted bool, runErr error, finishedAt time.Time) error {
	errorStr := ""
	if runErr != nil {
		errorStr = runErr.Error()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished = 1, result = ?, aborted = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, result, aborted, errorStr, orNow(finishedAt), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	run := &RunRecord{}
	var errorStr sql.NullString
	var finishedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, tree, seed, finished, result, aborted, error, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &run.Scenario, &run.Tree, &run.Seed, &run.Finished, &run.Result, &run.Aborted, &errorStr, &run.StartedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run.Error = errorStr.String
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return run, nil
}

// ListRuns returns all runs ordered by start time.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, tree, seed, finished, result, aborted, error, started_at, finished_at
		FROM runs
		ORDER BY started_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run := &RunRecord{}
		var errorStr sql.NullString
		var finishedAt sql.NullTime

		if err := rows.Scan(&run.ID, &run.Scenario, &run.Tree, &run.Seed, &run.Finished, &run.Result, &run.Aborted, &errorStr, &run.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Error = errorStr.String
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// AppendNodeEvent stores one node lifecycle event for a run, stamped
// with the time the event was observed.
func (s *SQLiteStore) AppendNodeEvent(ctx context.Context, rec *NodeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_events (run_id, path, label, kind, resolved, result, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Path, rec.Label, rec.Kind, rec.Resolved, rec.Result, orNow(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append node event: %w", err)
	}
	return nil
}

// GetNodeEvents retrieves a run's node events in insertion order.
func (s *SQLiteStore) GetNodeEvents(ctx context.Context, runID string) ([]*NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, path, label, kind, resolved, result, timestamp
		FROM node_events
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query node events: %w", err)
	}
	defer rows.Close()

	var recs []*NodeRecord
	for rows.Next() {
		rec := &NodeRecord{}
		var label sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Path, &label, &rec.Kind, &rec.Resolved, &rec.Result, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan node event: %w", err)
		}
		rec.Label = label.String
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node events: %w", err)
	}
	return recs, nil
}

// AppendLog stores one simulation log line for a run, stamped with
// the time the line was emitted.
func (s *SQLiteStore) AppendLog(ctx context.Context, runID, line string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sim_log (run_id, line, timestamp)
		VALUES (?, ?, ?)
	`, runID, line, orNow(at))
	if err != nil {
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

// GetLog retrieves a run's simulation log lines in insertion order.
func (s *SQLiteStore) GetLog(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line
		FROM sim_log
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query log: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan log line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log: %w", err)
	}
	return lines, nil
}
