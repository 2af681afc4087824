package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTestCase() TestCase {
	return TestCase{
		ID:       TestCaseID{RequirementID: "CSIP1", Specification: "CSIP", Version: "2.1.0"},
		Testable: TestableTrue,
		Rules: []Rule{
			{ID: 1, Level: LevelError, Packages: []Package{
				{Name: "valid", Path: "valid", IsValid: true, IsImplemented: true, HasDirectory: true, HasMETS: true},
				{Name: "missing", Path: "missing", IsImplemented: true},
			}},
			{ID: 2, Level: LevelWarning},
			{ID: 3, Level: LevelInfo, Packages: []Package{
				{Name: "valid", Path: "rule3/valid", IsValid: true, HasDirectory: true},
			}},
		},
	}
}

func TestTestCase_PackagesFlattening(t *testing.T) {
	tc := sampleTestCase()

	sum := 0
	for _, r := range tc.Rules {
		sum += len(r.Packages)
	}
	pkgs := tc.Packages()
	require.Len(t, pkgs, sum)
	assert.Equal(t, "valid", pkgs[0].Name)
	assert.Equal(t, "missing", pkgs[1].Name)
	assert.Equal(t, "rule3/valid", pkgs[2].Path)
}

func TestTestCase_PackagesEmptyRules(t *testing.T) {
	tc := TestCase{}
	assert.Empty(t, tc.Packages())
	assert.Empty(t, tc.ImplementedPackages())
}

func TestTestCase_ImplementedPackages(t *testing.T) {
	tc := sampleTestCase()
	assert.Equal(t, []string{"valid", "valid"}, tc.ImplementedPackages())
}

func TestTestCase_Rule(t *testing.T) {
	tc := sampleTestCase()
	r, ok := tc.Rule(3)
	require.True(t, ok)
	assert.Equal(t, LevelInfo, r.Level)

	_, ok = tc.Rule(9)
	assert.False(t, ok)
}

func TestRule_ImplementedPackages(t *testing.T) {
	tc := sampleTestCase()
	assert.Equal(t, []string{"valid", "missing"}, tc.Rules[0].ImplementedPackages())
	assert.Empty(t, tc.Rules[2].ImplementedPackages())
}

func TestPackage_Drift(t *testing.T) {
	tests := []struct {
		name string
		pkg  Package
		want DriftKind
	}{
		{"implemented and present", Package{IsImplemented: true, HasDirectory: true}, ""},
		{"not implemented and absent", Package{}, ""},
		{"implemented but missing", Package{IsImplemented: true}, DriftMissingDirectory},
		{"present but undeclared", Package{HasDirectory: true}, DriftUndeclared},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pkg.Drift())
		})
	}
}

func TestPackage_Runnable(t *testing.T) {
	assert.True(t, (&Package{Path: "valid", HasDirectory: true}).Runnable())
	assert.False(t, (&Package{Path: "valid"}).Runnable())
	assert.False(t, (&Package{Path: "", HasDirectory: true}).Runnable())
}
