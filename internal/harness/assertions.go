package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes every recorded outcome to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Outcomes []PackageOutcome // Recorded outcomes for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcomes) > 0 {
		fmt.Fprintf(&buf, "\nRecorded outcomes:\n")
		for i, o := range e.Outcomes {
			fmt.Fprintf(&buf, "  [%d] %s/%s %s@%s: %s\n", i+1, o.TestCase, o.Package, o.Runner, o.Version, o.Outcome)
		}
	}
	return buf.String()
}

// evaluate checks one assertion against a finished run.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertOutcome:
		return assertOutcome(r, a)
	case AssertErrorCode:
		return assertErrorCode(r, a)
	case AssertSummary:
		return assertSummary(r, a)
	case AssertTally:
		return assertTally(r, a)
	case AssertCoverage:
		return assertCoverage(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func notRecorded(r *Result, a Assertion) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("a result for %s/%s from %s", a.TestCase, a.Package, a.Runner),
		Actual:   "no result recorded",
		Outcomes: r.Outcomes,
	}
}

func assertOutcome(r *Result, a Assertion) error {
	o, ok := r.Find(a.TestCase, a.Package, a.Runner)
	if !ok {
		return notRecorded(r, a)
	}
	if o.Outcome != a.Expect {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s/%s from %s is %s", a.TestCase, a.Package, a.Runner, a.Expect),
			Actual:   string(o.Outcome),
			Outcomes: r.Outcomes,
		}
	}
	return nil
}

func assertErrorCode(r *Result, a Assertion) error {
	o, ok := r.Find(a.TestCase, a.Package, a.Runner)
	if !ok {
		return notRecorded(r, a)
	}
	if !slices.Contains(o.ErrorIDs, a.Code) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s reports %s for %s/%s", a.Runner, a.Code, a.TestCase, a.Package),
			Actual:   fmt.Sprintf("reported %v", o.ErrorIDs),
			Outcomes: r.Outcomes,
		}
	}
	return nil
}

func assertSummary(r *Result, a Assertion) error {
	s := r.Summary
	if s.Packages == a.Packages && s.Invocations == a.Invocations && s.Failures == a.Failures {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d packages, %d invocations, %d failures", a.Packages, a.Invocations, a.Failures),
		Actual:   fmt.Sprintf("%d packages, %d invocations, %d failures", s.Packages, s.Invocations, s.Failures),
	}
}

// assertTally sums the ledger's counts over every version of the runner.
func assertTally(r *Result, a Assertion) error {
	var got model.Tally
	for _, t := range r.Tallies {
		if t.RunnerID == a.Runner {
			got.Pass += t.Pass
			got.Fail += t.Fail
			got.Error += t.Error
		}
	}
	want := model.Tally{Pass: a.Pass, Fail: a.Fail, Error: a.Error}
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s: %d pass, %d fail, %d error", a.Runner, want.Pass, want.Fail, want.Error),
		Actual:   fmt.Sprintf("%d pass, %d fail, %d error", got.Pass, got.Fail, got.Error),
		Outcomes: r.Outcomes,
	}
}

func assertCoverage(r *Result, a Assertion) error {
	wantCorpus := orEmpty(a.MissingCorpus)
	wantSpec := orEmpty(a.MissingSpec)
	if slices.Equal(wantCorpus, r.Coverage.MissingCorpus) && slices.Equal(wantSpec, r.Coverage.MissingSpec) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("missing corpus %v, missing spec %v", wantCorpus, wantSpec),
		Actual:   fmt.Sprintf("missing corpus %v, missing spec %v", r.Coverage.MissingCorpus, r.Coverage.MissingSpec),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
