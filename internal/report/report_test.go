package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/payload"
	"github.com/carlwilson/corpus-testing/internal/results"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/specification"
	"github.com/carlwilson/corpus-testing/internal/testutil"
)

func testSpec() *specification.Specification {
	return &specification.Specification{
		ID:      "CSIP",
		Version: "2.1.0",
		Title:   "Common Specification for Information Packages",
		Groups: []specification.Group{{Name: "metsRoot", Requirements: []specification.Requirement{
			{ID: "CSIP1"}, {ID: "CSIP2"}, {ID: "CSIP4"},
		}}},
		Structural: []specification.Requirement{{ID: "CSIPSTR1"}},
	}
}

func testCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	b := testutil.NewCorpusBuilder(t)
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP1", Rules: []testutil.RuleFixture{
		{ID: 1, Message: "OBJID must be present", Packages: []testutil.PackageFixture{
			{Name: "valid", Path: "valid", Valid: true, Implemented: true, OnDisk: true, METS: true},
			{Name: "invalid", Path: "invalid", Implemented: true, OnDisk: true, METS: true},
			{Name: "ghost", Path: "ghost", Implemented: true},
		}},
		{ID: 2, Packages: []testutil.PackageFixture{
			{Name: "invalid", Path: "invalid", Implemented: true, OnDisk: true},
		}},
	}})
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP3", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "extra", Path: "extra", OnDisk: true},
		}},
	}})
	b.Dir("CSIP", "CSIP4")

	c, err := corpus.NewLoader(nil, nil).FromDirectory(testSpec(), b.Root())
	require.NoError(t, err)
	return c
}

func storedResult(id, ver string, valid bool, codes ...string) results.Artifact {
	res := model.NewCorpusTestResult(model.RunnerDetails{ID: id, Name: id, Version: ver}, "CSIP1")
	res.RetCode = 0
	res.StructStatus = model.StatusWellFormed
	res.SchemaStatus = model.StatusValid
	res.SchematronStatus = model.StatusValid
	if !valid {
		res.SchemaStatus = "NotValid"
	}
	for _, c := range codes {
		res.ErrorIDs[c] = model.LevelError
	}
	return results.Artifact{
		Specification: "CSIP",
		TestCase:      "CSIP1",
		Package:       "invalid",
		Path:          "invalid",
		Process:       results.NewProcess(runner.ProcessResult{Timestamp: testutil.Epoch}),
		Result:        res,
	}
}

func testRepository(t *testing.T) *results.Repository {
	t.Helper()
	repo := results.NewRepository(t.TempDir(), nil)
	for _, a := range []results.Artifact{
		storedResult("eark-validator", "2.0.0", true),
		storedResult("eark-validator", "2.1.1", false, "CSIP1"),
		storedResult("commons-ip", "2.8.0", true),
	} {
		_, err := repo.Save(a)
		require.NoError(t, err)
	}
	return repo
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func assertGolden(t *testing.T, name string, v map[string]any) {
	t.Helper()
	data, err := payload.MarshalCanonical(v)
	require.NoError(t, err)
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, data)
}

func TestBuilder_Corpus(t *testing.T) {
	c := testCorpus(t)

	cc, err := NewBuilder(nil).Corpus(c)
	require.NoError(t, err)

	var drift, invalid []string
	for _, d := range cc.Drift {
		drift = append(drift, d.String())
	}
	for _, tc := range cc.Invalid {
		invalid = append(invalid, tc.Dir)
	}
	assertGolden(t, "corpus-context", map[string]any{
		"specification":  cc.Corpus.ID(),
		"missing_corpus": anySlice(cc.MissingCorpus),
		"missing_spec":   anySlice(cc.MissingSpec),
		"drift":          anySlice(drift),
		"invalid":        anySlice(invalid),
	})
}

func TestBuilder_CorpusDuplicateRequirement(t *testing.T) {
	c := testCorpus(t)
	c.Specification.Structural = append(c.Specification.Structural, specification.Requirement{ID: "CSIP1"})

	_, err := NewBuilder(nil).Corpus(c)
	var dup *specification.DuplicateRequirementError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "CSIP1", dup.ID)
}

func TestBuilder_CorpusEmptyDrift(t *testing.T) {
	b := testutil.NewCorpusBuilder(t)
	c, err := corpus.NewLoader(nil, nil).FromDirectory(testSpec(), b.Root())
	require.NoError(t, err)

	cc, err := NewBuilder(nil).Corpus(c)
	require.NoError(t, err)
	assert.NotNil(t, cc.Drift)
	assert.Equal(t, []string{"CSIP1", "CSIP2", "CSIP4", "CSIPSTR1"}, cc.MissingCorpus)
	assert.Empty(t, cc.MissingSpec)
}

func TestBuilder_Package(t *testing.T) {
	c := testCorpus(t)
	tc, ok := c.TestCase("CSIP1")
	require.True(t, ok)
	rule := tc.Rules[0]

	pc, err := NewBuilder(testRepository(t)).Package(c, tc, rule, rule.Packages[1])
	require.NoError(t, err)

	var outcomes []any
	for _, o := range pc.Outcomes {
		outcomes = append(outcomes, map[string]any{
			"runner":  o.Details.Key(),
			"outcome": string(o.Outcome),
		})
	}
	require.Len(t, pc.Package.TestResults, len(pc.Outcomes))
	for i, o := range pc.Outcomes {
		assert.Equal(t, o.Result, pc.Package.TestResults[i])
	}
	assert.Empty(t, rule.Packages[1].TestResults, "corpus tree must not be modified")

	assertGolden(t, "package-context", map[string]any{
		"breadcrumb": anySlice([]string{pc.Corpus.ID(), pc.Case.Dir, "1", pc.Package.Name}),
		"outcomes":   outcomes,
	})
}

func TestBuilder_PackageWithoutDirectoryHasNoOutcomes(t *testing.T) {
	c := testCorpus(t)
	tc, _ := c.TestCase("CSIP1")
	rule := tc.Rules[0]

	pc, err := NewBuilder(testRepository(t)).Package(c, tc, rule, rule.Packages[2])
	require.NoError(t, err)
	assert.Equal(t, "ghost", pc.Package.Name)
	assert.NotNil(t, pc.Outcomes)
	assert.Empty(t, pc.Outcomes)
	assert.Empty(t, pc.Package.TestResults)
}

func TestBuilder_CaseTallyCountsSharedPathOnce(t *testing.T) {
	c := testCorpus(t)
	tc, _ := c.TestCase("CSIP1")

	cc, err := NewBuilder(testRepository(t)).Case(c, tc)
	require.NoError(t, err)
	assert.Equal(t, model.Tally{Pass: 1, Fail: 1}, cc.Tally)
	assert.Same(t, c, cc.Corpus)
}

func TestBuilder_Home(t *testing.T) {
	c := testCorpus(t)
	home, err := NewBuilder(nil).Home(corpus.NewRegistry(c))
	require.NoError(t, err)
	require.Len(t, home.Corpora, 1)

	s := home.Corpora[0]
	assert.Equal(t, 3, s.TestCases)
	assert.Equal(t, 2, s.Testable)
	assert.Equal(t, 5, s.Packages)
	assert.False(t, s.Complete)
}

func TestRender_Tree(t *testing.T) {
	c := testCorpus(t)
	site := t.TempDir()
	r, err := NewRenderer(site, NewBuilder(testRepository(t)), nil)
	require.NoError(t, err)
	require.NoError(t, r.Setup())

	stats, err := r.Render(corpus.NewRegistry(c))
	require.NoError(t, err)
	// home + corpus + 3 cases + CSIP1 {valid, invalid, ghost} + CSIP3 {extra}
	assert.Equal(t, Stats{Pages: 9}, stats)

	for _, p := range []string{
		"index.html",
		"CSIP/index.html",
		"CSIP/CSIP1/index.html",
		"CSIP/CSIP1/valid/index.html",
		"CSIP/CSIP1/invalid/index.html",
		"CSIP/CSIP1/ghost/index.html",
		"CSIP/CSIP3/extra/index.html",
		"CSIP/CSIP4/index.html",
		"static/site.css",
	} {
		assert.FileExists(t, filepath.Join(site, filepath.FromSlash(p)))
	}

	home := readFile(t, filepath.Join(site, "index.html"))
	assert.Contains(t, home, `<a href="CSIP/">CSIP</a> Common Specification for Information Packages`)
	assert.Contains(t, home, `href="static/site.css"`)

	corpusPage := readFile(t, filepath.Join(site, "CSIP", "index.html"))
	assert.Contains(t, corpusPage, "<li>CSIPSTR1</li>")
	assert.Contains(t, corpusPage, "missing_directory")
	assert.Contains(t, corpusPage, "CSIP4: testCase.xml not found")

	pkgPage := readFile(t, filepath.Join(site, "CSIP", "CSIP1", "invalid", "index.html"))
	assert.Contains(t, pkgPage, `<a href="../../../">Home</a>`)
	assert.Contains(t, pkgPage, `<a href="../">CSIP1</a>`)
	assert.Contains(t, pkgPage, `<tr class="outcome-pass">`)
	assert.Contains(t, pkgPage, `<tr class="outcome-fail">`)
	assert.Contains(t, pkgPage, "CSIP1 (ERROR)")
	assert.NotContains(t, pkgPage, "2.0.0", "superseded versions are not shown")
	assert.Contains(t, pkgPage, `href="../../../static/site.css"`)
}

func TestRender_EscapesCorpusText(t *testing.T) {
	b := testutil.NewCorpusBuilder(t)
	b.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP1", Rules: []testutil.RuleFixture{
		{ID: 1, Message: "&lt;script&gt;alert(1)&lt;/script&gt;", Packages: []testutil.PackageFixture{
			{Name: "p", Path: "p", OnDisk: true, Implemented: true},
		}},
	}})
	c, err := corpus.NewLoader(nil, nil).FromDirectory(testSpec(), b.Root())
	require.NoError(t, err)

	site := t.TempDir()
	r, err := NewRenderer(site, NewBuilder(nil), nil)
	require.NoError(t, err)
	_, err = r.Render(corpus.NewRegistry(c))
	require.NoError(t, err)

	page := readFile(t, filepath.Join(site, "CSIP", "CSIP1", "index.html"))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestSetup_KeepsStatic(t *testing.T) {
	site := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(site, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "static", "site.css"), []byte("custom"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(site, "CSIP", "CSIP1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(site, "favicon.ico"), []byte("icon"), 0o644))

	r, err := NewRenderer(site, NewBuilder(nil), nil)
	require.NoError(t, err)
	require.NoError(t, r.Setup())

	assert.NoDirExists(t, filepath.Join(site, "CSIP"))
	assert.NoFileExists(t, filepath.Join(site, "index.html"))
	assert.FileExists(t, filepath.Join(site, "favicon.ico"))
	assert.Equal(t, "custom", readFile(t, filepath.Join(site, "static", "site.css")))
}

func TestSetup_CreatesRoot(t *testing.T) {
	site := filepath.Join(t.TempDir(), "site")
	r, err := NewRenderer(site, NewBuilder(nil), nil)
	require.NoError(t, err)
	require.NoError(t, r.Setup())
	assert.FileExists(t, filepath.Join(site, "static", "site.css"))
}

func TestSafeSegment(t *testing.T) {
	assert.True(t, safeSegment("valid_objid"))
	assert.False(t, safeSegment(""))
	assert.False(t, safeSegment(".."))
	assert.False(t, safeSegment("a/b"))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
