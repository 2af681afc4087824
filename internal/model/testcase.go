package model

import "fmt"

// TestCaseID identifies a test case: one requirement of one specification
// version.
type TestCaseID struct {
	RequirementID string `json:"requirement_id"`
	Specification string `json:"specification"`
	Version       string `json:"version"`
}

// String returns the requirement ID, which is also the test case directory
// name.
func (id TestCaseID) String() string {
	return id.RequirementID
}

// Dependency names another requirement a test case relies on.
type Dependency struct {
	RequirementID string `json:"requirement_id"`
	URL           string `json:"url,omitempty"`
	Text          string `json:"text,omitempty"`
}

// TestCase is one requirement's testable definition. Dir is the name of
// the test case directory under the specification's corpus root.
type TestCase struct {
	ID              TestCaseID   `json:"id"`
	Dir             string       `json:"dir"`
	Description     string       `json:"description"`
	RequirementText string       `json:"requirement_text,omitempty"`
	References      []string     `json:"references,omitempty"`
	Dependencies    []Dependency `json:"dependencies,omitempty"`
	Testable        Testable     `json:"testable"`

	// XMLValid is false when testCase.xml did not validate against its
	// schema. The rest of the record is still populated best-effort.
	XMLValid           bool   `json:"xml_valid"`
	XMLValidationError string `json:"xml_validation_error,omitempty"`

	Rules []Rule `json:"rules"`

	// Problems lists non-fatal defects found while loading, such as
	// duplicate rule IDs or unknown rule levels.
	Problems []string `json:"problems,omitempty"`
}

// Packages flattens the packages of every rule in rule order.
func (tc *TestCase) Packages() []Package {
	var pkgs []Package
	for _, r := range tc.Rules {
		pkgs = append(pkgs, r.Packages...)
	}
	return pkgs
}

// ImplementedPackages returns the names of packages backed by a directory,
// in rule order. Names may repeat across rules.
func (tc *TestCase) ImplementedPackages() []string {
	var names []string
	for _, r := range tc.Rules {
		for _, p := range r.Packages {
			if p.HasDirectory {
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// Rule returns the rule with the given ID.
func (tc *TestCase) Rule(id int) (*Rule, bool) {
	for i := range tc.Rules {
		if tc.Rules[i].ID == id {
			return &tc.Rules[i], true
		}
	}
	return nil, false
}

// Rule is one expected validator behaviour for a set of sample packages.
// IDs are unique only within the owning test case.
type Rule struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Level       Level     `json:"level"`
	Message     string    `json:"message,omitempty"`
	Packages    []Package `json:"packages"`
}

// ImplementedPackages returns the names of packages declared implemented.
func (r *Rule) ImplementedPackages() []string {
	var names []string
	for _, p := range r.Packages {
		if p.IsImplemented {
			names = append(names, p.Name)
		}
	}
	return names
}

// Package is a sample archival package exercising a rule.
type Package struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	Description   string `json:"description"`
	IsValid       bool   `json:"is_valid"`
	IsImplemented bool   `json:"is_implemented"`

	// Computed against the test case directory when loaded.
	HasDirectory bool `json:"has_directory"`
	HasMETS      bool `json:"has_mets"`

	TestResults []CorpusTestResult `json:"test_results,omitempty"`
}

// DriftKind classifies a mismatch between what a test case declares and
// what is on disk.
type DriftKind string

const (
	// DriftMissingDirectory: declared implemented, no directory on disk.
	DriftMissingDirectory DriftKind = "missing_directory"
	// DriftUndeclared: a directory exists but the package is declared not
	// implemented.
	DriftUndeclared DriftKind = "undeclared_directory"
)

// Drift returns the package's drift kind, or "" when declaration and disk
// agree.
func (p *Package) Drift() DriftKind {
	switch {
	case p.IsImplemented && !p.HasDirectory:
		return DriftMissingDirectory
	case !p.IsImplemented && p.HasDirectory:
		return DriftUndeclared
	default:
		return ""
	}
}

// Runnable reports whether the package can be handed to a validator.
func (p *Package) Runnable() bool {
	return p.HasDirectory && p.Path != "" && p.Path != "."
}

// Drift is one drifting package located within its corpus.
type Drift struct {
	Kind     DriftKind `json:"kind"`
	TestCase string    `json:"test_case"`
	Rule     int       `json:"rule"`
	Package  string    `json:"package"`
	Path     string    `json:"path"`
}

func (d Drift) String() string {
	return fmt.Sprintf("%s rule %d package %s (%s): %s", d.TestCase, d.Rule, d.Package, d.Path, d.Kind)
}
