package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/runner"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and seeds its run id.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Specification SpecificationDef `yaml:"specification"`
	Runners       []RunnerDef      `yaml:"runners"`
	TestCases     []TestCaseDef    `yaml:"test_cases"`

	// Jobs is the tester's concurrency. Zero means sequential.
	Jobs int `yaml:"jobs,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// SpecificationDef declares the specification the corpus is checked
// against.
type SpecificationDef struct {
	ID           string   `yaml:"id"`
	Version      string   `yaml:"version"`
	Requirements []string `yaml:"requirements"`
}

// RunnerDef declares one scripted validator.
type RunnerDef struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
	// Family defaults to eark-validator.
	Family runner.Family `yaml:"family,omitempty"`
}

// TestCaseDef declares one test case directory and its definition.
type TestCaseDef struct {
	ID string `yaml:"id"`
	// Testable defaults to TRUE.
	Testable string    `yaml:"testable,omitempty"`
	Rules    []RuleDef `yaml:"rules"`
}

// RuleDef declares one rule of a test case.
type RuleDef struct {
	ID       int          `yaml:"id"`
	Level    string       `yaml:"level,omitempty"`
	Message  string       `yaml:"message,omitempty"`
	Packages []PackageDef `yaml:"packages"`
}

// PackageDef declares one corpus package and how each runner answers
// for it.
type PackageDef struct {
	Name string `yaml:"name"`
	// Path defaults to Name.
	Path        string `yaml:"path,omitempty"`
	Valid       bool   `yaml:"valid"`
	Implemented bool   `yaml:"implemented"`
	// OnDisk creates the package directory.
	OnDisk bool `yaml:"on_disk"`

	// Responses maps runner id to that runner's answer.
	Responses map[string]Response `yaml:"responses,omitempty"`
}

// Response is a scripted validator answer.
type Response struct {
	// Report is printed on stdout as JSON after Stdout.
	Report  map[string]any `yaml:"report,omitempty"`
	Stdout  string         `yaml:"stdout,omitempty"`
	Stderr  string         `yaml:"stderr,omitempty"`
	RetCode int            `yaml:"ret_code,omitempty"`
	// Error simulates an invocation that never produced a process result,
	// such as a timeout.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one fact about a finished run.
type Assertion struct {
	// Type is one of outcome, error_code, summary, tally, coverage.
	Type string `yaml:"type"`

	// Package address (outcome, error_code). Package is the package path.
	TestCase string `yaml:"test_case,omitempty"`
	Package  string `yaml:"package,omitempty"`
	Runner   string `yaml:"runner,omitempty"`

	// Expect is the outcome for outcome assertions.
	Expect model.Outcome `yaml:"expect,omitempty"`

	// Code is the requirement code for error_code assertions.
	Code string `yaml:"code,omitempty"`

	// Run counts (summary).
	Packages    int `yaml:"packages,omitempty"`
	Invocations int `yaml:"invocations,omitempty"`
	Failures    int `yaml:"failures,omitempty"`

	// Outcome counts (tally).
	Pass  int `yaml:"pass,omitempty"`
	Fail  int `yaml:"fail,omitempty"`
	Error int `yaml:"error,omitempty"`

	// Coverage gaps (coverage). Nil means none.
	MissingCorpus []string `yaml:"missing_corpus,omitempty"`
	MissingSpec   []string `yaml:"missing_spec,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome   = "outcome"
	AssertErrorCode = "error_code"
	AssertSummary   = "summary"
	AssertTally     = "tally"
	AssertCoverage  = "coverage"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specification.ID == "" {
		return fmt.Errorf("specification.id is required")
	}
	if s.Specification.Version == "" {
		return fmt.Errorf("specification.version is required")
	}
	if len(s.Runners) == 0 {
		return fmt.Errorf("runners list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	runnerIDs := make([]string, 0, len(s.Runners))
	for i, r := range s.Runners {
		if r.ID == "" {
			return fmt.Errorf("runners[%d]: id is required", i)
		}
		if r.Version == "" {
			return fmt.Errorf("runners[%d]: version is required", i)
		}
		if slices.Contains(runnerIDs, r.ID) {
			return fmt.Errorf("runners[%d]: duplicate id %q", i, r.ID)
		}
		runnerIDs = append(runnerIDs, r.ID)
	}

	for i, tc := range s.TestCases {
		if tc.ID == "" {
			return fmt.Errorf("test_cases[%d]: id is required", i)
		}
		for j, rule := range tc.Rules {
			for k, p := range rule.Packages {
				if p.Name == "" {
					return fmt.Errorf("test_cases[%d].rules[%d].packages[%d]: name is required", i, j, k)
				}
				for id := range p.Responses {
					if !slices.Contains(runnerIDs, id) {
						return fmt.Errorf("test_cases[%d].rules[%d].packages[%d]: response for unknown runner %q", i, j, k, id)
					}
				}
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutcome, AssertErrorCode:
		if a.TestCase == "" || a.Package == "" || a.Runner == "" {
			return fmt.Errorf("assertions[%d]: test_case, package and runner are required for %s", index, a.Type)
		}
		if a.Type == AssertOutcome {
			switch a.Expect {
			case model.OutcomePass, model.OutcomeFail, model.OutcomeError:
			default:
				return fmt.Errorf("assertions[%d]: expect must be pass, fail or error, got %q", index, a.Expect)
			}
		}
		if a.Type == AssertErrorCode && a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertSummary:
		if a.Packages < 0 || a.Invocations < 0 || a.Failures < 0 {
			return fmt.Errorf("assertions[%d]: counts must be non-negative for summary", index)
		}
	case AssertTally:
		if a.Runner == "" {
			return fmt.Errorf("assertions[%d]: runner is required for tally", index)
		}
	case AssertCoverage:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
