package harness

import (
	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/store"
	"github.com/carlwilson/corpus-testing/internal/tester"
)

// PackageOutcome is one recorded result as the ledger holds it.
type PackageOutcome struct {
	TestCase string        `json:"test_case"`
	Package  string        `json:"package"` // package path
	Runner   string        `json:"runner"`
	Version  string        `json:"version"`
	Outcome  model.Outcome `json:"outcome"`
	Valid    bool          `json:"valid"`
	ErrorIDs []string      `json:"error_ids"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Summary tester.Summary `json:"summary"`

	// Outcomes are sorted by test case, package path and runner.
	Outcomes []PackageOutcome `json:"outcomes"`

	// Tallies are the ledger's per-runner-version counts.
	Tallies []store.RunnerSummary `json:"tallies"`

	Coverage corpus.Coverage `json:"coverage"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []PackageOutcome{},
		Tallies:  []store.RunnerSummary{},
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Find returns the outcome for one runner on one package.
func (r *Result) Find(testCase, pkgPath, runnerID string) (PackageOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.TestCase == testCase && o.Package == pkgPath && o.Runner == runnerID {
			return o, true
		}
	}
	return PackageOutcome{}, false
}
