package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// Run is one ledger row. FinishedAt is zero while the run is in progress.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     RunStatus `json:"status"`
	RunTotals
}

// RunnerSummary counts outcomes for one runner version within a run.
type RunnerSummary struct {
	RunnerID      string `json:"runner_id"`
	RunnerVersion string `json:"runner_version"`
	model.Tally
}

// StoredResult is a recorded result as read back from the ledger.
type StoredResult struct {
	Specification string
	TestCase      string
	Package       string
	RunnerID      string
	RunnerVersion string
	RequirementID string
	RetCode       int
	DurationMS    int64
	Valid         bool
	Outcome       model.Outcome
	ErrorIDs      map[string]model.Level
	Digest        string
}

// Runs returns the most recent runs, newest first. A limit <= 0 returns all.
//
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, packages, invocations, failures
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, packages, invocations, failures
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// RunnerSummary tallies outcomes per runner version for runID, ordered by
// runner id then version.
func (s *Store) RunnerSummary(ctx context.Context, runID string) ([]RunnerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runner_id, runner_version,
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		FROM results
		WHERE run_id = ?
		GROUP BY runner_id, runner_version
		ORDER BY runner_id COLLATE BINARY ASC, runner_version COLLATE BINARY ASC
	`, string(model.OutcomePass), string(model.OutcomeFail), string(model.OutcomeError), runID)
	if err != nil {
		return nil, fmt.Errorf("query runner summary: %w", err)
	}
	defer rows.Close()

	out := []RunnerSummary{}
	for rows.Next() {
		var rs RunnerSummary
		if err := rows.Scan(&rs.RunnerID, &rs.RunnerVersion, &rs.Pass, &rs.Fail, &rs.Error); err != nil {
			return nil, fmt.Errorf("scan runner summary: %w", err)
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runner summary: %w", err)
	}
	return out, nil
}

// Results returns every result recorded for runID in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT specification, test_case, package, runner_id, runner_version,
		       requirement_id, ret_code, duration_ms, valid, outcome, error_ids, digest
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := []StoredResult{}
	for rows.Next() {
		var (
			r        StoredResult
			valid    int
			outcome  string
			errorIDs string
		)
		if err := rows.Scan(&r.Specification, &r.TestCase, &r.Package, &r.RunnerID, &r.RunnerVersion,
			&r.RequirementID, &r.RetCode, &r.DurationMS, &valid, &outcome, &errorIDs, &r.Digest); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Valid = valid != 0
		r.Outcome = model.Outcome(outcome)
		if r.ErrorIDs, err = unmarshalErrorIDs(errorIDs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
		status   string
	)
	if err := row.Scan(&r.ID, &started, &finished, &status, &r.Packages, &r.Invocations, &r.Failures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		if r.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, err
		}
	}
	r.Status = RunStatus(status)
	return r, nil
}
