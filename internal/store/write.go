package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// RunStatus is a run's lifecycle state.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunComplete  RunStatus = "complete"
	RunCancelled RunStatus = "cancelled"
)

// RunTotals are the counters stored when a run finishes.
type RunTotals struct {
	Packages    int `json:"packages"`
	Invocations int `json:"invocations"`
	Failures    int `json:"failures"`
}

// Record is one normalized result within a run.
type Record struct {
	RunID         string
	Specification string
	TestCase      string
	Package       string
	Result        model.CorpusTestResult
	Outcome       model.Outcome
}

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// BeginRun inserts a run in the running state.
// Uses ON CONFLICT(id) DO NOTHING: beginning the same run twice keeps the
// first start time.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	if id == "" {
		return errors.New("begin run: empty run id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, status)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, formatTime(startedAt), string(RunRunning))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stamps a run's end time, status and totals.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt time.Time, status RunStatus, totals RunTotals) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, packages = ?, invocations = ?, failures = ?
		WHERE id = ?
	`, formatTime(finishedAt), string(status), totals.Packages, totals.Invocations, totals.Failures, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// RecordResult inserts one result.
// Uses ON CONFLICT DO NOTHING for idempotency: recording the same
// (run, package, runner version) again is silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) RecordResult(ctx context.Context, rec Record) error {
	errorIDs, err := marshalErrorIDs(rec.Result.ErrorIDs)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	digest, err := resultDigest(rec.Result)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	valid := 0
	if rec.Result.IsValid() {
		valid = 1
	}
	d := rec.Result.Details
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(run_id, specification, test_case, package, runner_id, runner_version,
		 requirement_id, ret_code, duration_ms, valid, outcome, error_ids, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.RunID,
		rec.Specification,
		rec.TestCase,
		rec.Package,
		d.ID,
		d.Version,
		rec.Result.RequirementID,
		rec.Result.RetCode,
		rec.Result.DurationMS,
		valid,
		string(rec.Outcome),
		errorIDs,
		digest,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}
