// Package tester drives every configured validator over every corpus
// package and persists what they report.
//
// A run walks registry, corpus, test case, rule and package in that order.
// Packages without a directory are skipped, and a package path shared by
// several rules of one test case is validated once. For each package every
// runner is invoked in configuration order; its output is extracted,
// normalized, graded, written as an artifact and recorded in the ledger.
//
// Validator failures never abort a run: they become results with Outcome
// error. Only persistence failures and cancellation stop it.
//
// With Jobs > 1 packages are validated concurrently, each by one worker
// running the runners in turn. Run returns only after every worker has
// finished, so callers can render reports from the artifacts straight away.
package tester
