package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/carlwilson/corpus-testing/internal/payload"
	"github.com/carlwilson/corpus-testing/internal/tester"
)

// Snapshot is what a golden file records for a scenario run.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Summary      tester.Summary   `json:"summary"`
	Outcomes     []PackageOutcome `json:"outcomes"`
}

// RunWithGolden executes a scenario and compares its outcomes against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if outcomes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := payload.CanonicalJSON(Snapshot{
		ScenarioName: name,
		Summary:      result.Summary,
		Outcomes:     result.Outcomes,
	})
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
