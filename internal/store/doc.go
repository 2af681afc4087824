// Package store provides the SQLite run ledger.
//
// Artifacts on disk hold the latest result per validator version; the
// ledger remembers every batch run and what each produced:
//   - Runs: one row per `corpora test` invocation
//   - Results: one row per (run, package, runner version)
//
// # Ordering
//
// Runs are ordered by their insertion sequence, never by wall time, so
// history listings are stable across clock changes.
//
// # Idempotency
//
//   - UNIQUE(run_id, specification, test_case, package, runner_id, runner_version)
//   - Recording the same result twice within a run is a no-op; the first
//     row wins.
//
// The ledger runs in WAL mode so `corpora history` can read while a test
// run writes.
//
// Result digests are computed over the canonical JSON of the normalized
// result (internal/payload), so identical outcomes across runs compare equal.
package store
