package corpus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/specification"
	"github.com/carlwilson/corpus-testing/internal/testutil"
)

func csipSpec(ids ...string) *specification.Specification {
	reqs := make([]specification.Requirement, len(ids))
	for i, id := range ids {
		reqs[i] = specification.Requirement{ID: id}
	}
	return &specification.Specification{
		ID:      "CSIP",
		Version: "2.1.0",
		Groups:  []specification.Group{{Name: "metsRoot", Requirements: reqs}},
	}
}

func buildSampleCorpus(t *testing.T) *testutil.CorpusBuilder {
	t.Helper()
	b := testutil.NewCorpusBuilder(t)
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP1", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "valid", Path: "valid", Valid: true, Implemented: true, OnDisk: true},
			{Name: "invalid", Path: "invalid", Implemented: true, OnDisk: true},
		}},
	}})
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP2", Testable: "PARTIAL", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "valid", Path: "valid", Valid: true, OnDisk: true},
			{Name: "ghost", Path: "ghost", Implemented: true},
		}},
	}})
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP3", Testable: "FALSE", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "untestable", Path: "untestable", OnDisk: true},
		}},
	}})
	b.Dir("CSIP", "README")
	b.Dir("SIP", "SIP1")
	return b
}

func TestFromDirectory(t *testing.T) {
	b := buildSampleCorpus(t)

	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1", "CSIP2", "CSIP3"), b.Root())
	require.NoError(t, err)

	assert.Equal(t, []string{"CSIP1", "CSIP2", "CSIP3"}, c.Directories, "only directories with the specification prefix are scanned")
	require.Len(t, c.TestCases, 3)

	tc, ok := c.TestCase("CSIP2")
	require.True(t, ok)
	assert.Equal(t, model.TestablePartial, tc.Testable)
}

func TestCorpus_DerivedSets(t *testing.T) {
	b := buildSampleCorpus(t)
	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1", "CSIP2", "CSIP3"), b.Root())
	require.NoError(t, err)

	assert.Len(t, c.Rules(), 2, "non-testable test cases contribute no rules")
	assert.Len(t, c.Packages(), 4)
	assert.Equal(t, []string{"invalid", "untestable", "valid"}, c.ImplementedPackages())
}

// Flattened packages equal the sum of rule package counts for every test case.
func TestCorpus_PackagesFlatteningProperty(t *testing.T) {
	b := buildSampleCorpus(t)
	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1", "CSIP2", "CSIP3"), b.Root())
	require.NoError(t, err)

	for _, tc := range c.TestCases {
		sum := 0
		for _, r := range tc.Rules {
			sum += len(r.Packages)
		}
		assert.Len(t, tc.Packages(), sum, tc.Dir)
	}
}

func TestCorpus_Drift(t *testing.T) {
	b := buildSampleCorpus(t)
	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1", "CSIP2", "CSIP3"), b.Root())
	require.NoError(t, err)

	drift := c.Drift()
	require.Len(t, drift, 3)
	assert.Equal(t, model.Drift{Kind: model.DriftUndeclared, TestCase: "CSIP2", Rule: 1, Package: "valid", Path: "valid"}, drift[0])
	assert.Equal(t, model.Drift{Kind: model.DriftMissingDirectory, TestCase: "CSIP2", Rule: 1, Package: "ghost", Path: "ghost"}, drift[1])
	assert.Equal(t, model.DriftUndeclared, drift[2].Kind)
	assert.Equal(t, "CSIP3", drift[2].TestCase)
}

func TestCorpus_PackageDir(t *testing.T) {
	b := buildSampleCorpus(t)
	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1"), b.Root())
	require.NoError(t, err)

	tc, _ := c.TestCase("CSIP1")
	assert.DirExists(t, c.PackageDir(tc, &tc.Rules[0].Packages[0]))
	assert.DirExists(t, c.CaseDir(tc))
}

func TestFromDirectory_MissingSpecificationDirectory(t *testing.T) {
	c, err := NewLoader(nil, nil).FromDirectory(csipSpec("CSIP1"), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, c.TestCases)

	cov, err := c.Coverage()
	require.NoError(t, err)
	assert.Equal(t, []string{"CSIP1"}, cov.MissingCorpus)
}

func TestCorpus_InvalidDefinitions(t *testing.T) {
	b := buildSampleCorpus(t)
	c, err := NewLoader(rejectAll, nil).FromDirectory(csipSpec("CSIP1"), b.Root())
	require.NoError(t, err)
	assert.Len(t, c.InvalidDefinitions(), 3)
}

func TestLoadRegistry(t *testing.T) {
	b := buildSampleCorpus(t)
	sip := &specification.Specification{ID: "SIP", Version: "2.1.0", Structural: []specification.Requirement{{ID: "SIP1"}}}
	specs, err := specification.NewSet(csipSpec("CSIP1", "CSIP2"), sip)
	require.NoError(t, err)

	reg, err := NewLoader(nil, nil).LoadRegistry(specs, b.Root())
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "CSIP", all[0].ID())
	assert.Equal(t, "SIP", all[1].ID())

	sipCorpus, ok := reg.Get("SIP")
	require.True(t, ok)
	assert.Equal(t, []string{"SIP1"}, sipCorpus.Directories)
}

func TestLoadRegistry_DuplicateRequirementIsFatal(t *testing.T) {
	b := buildSampleCorpus(t)
	specs, err := specification.NewSet(csipSpec("CSIP1", "CSIP1"))
	require.NoError(t, err)

	_, err = NewLoader(nil, nil).LoadRegistry(specs, b.Root())
	var dup *specification.DuplicateRequirementError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "CSIP1", dup.ID)
}
