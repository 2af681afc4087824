package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/testutil"
)

const (
	validReport   = `{"structuralResults":{"level":"WellFormed","messages":[]},"metadata":{"schema_results":{"level":"Valid","messages":[]},"schematron_results":{"level":"Valid","messages":[]}}}`
	invalidReport = `{"structuralResults":{"level":"WellFormed","messages":[]},"metadata":{"schema_results":{"level":"NotValid","messages":[{"rule_id":"CSIP1","level":"ERROR","message":"OBJID missing"}]},"schematron_results":{"level":"Valid","messages":[]}}}`
)

// fixture is a complete workspace: specifications, corpus, runners file
// and configuration, all under one temporary directory.
type fixture struct {
	dir     string
	config  string
	corpus  *testutil.CorpusBuilder
	results string
	site    string
	ledger  string
}

// newFixture declares a CSIP specification with the given requirement IDs
// and a corpus with passing CSIP1 and CSIP2 test cases.
func newFixture(t *testing.T, requirements ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	fx := &fixture{
		dir:     dir,
		config:  filepath.Join(dir, "corpora.yaml"),
		corpus:  testutil.NewCorpusBuilder(t),
		results: filepath.Join(dir, "results"),
		site:    filepath.Join(dir, "site"),
		ledger:  filepath.Join(dir, "results", "ledger.db"),
	}

	var reqs strings.Builder
	for _, id := range requirements {
		fmt.Fprintf(&reqs, "\t\t{id: %q, name: \"Requirement %s\", level: \"MUST\"},\n", id, id)
	}
	specs := filepath.Join(dir, "specifications")
	require.NoError(t, os.MkdirAll(specs, 0o755))
	writeFile(t, filepath.Join(specs, "csip.cue"), fmt.Sprintf(`package specifications

specification: CSIP: {
	version: "2.1.0"
	title:   "Common Specification for Information Packages"
	requirements: metsRoot: [
%s	]
}
`, reqs.String()))

	writeFile(t, filepath.Join(dir, "runners.yaml"), `runners:
  - id: eark-validator
    family: eark-validator
    output: stdout
    commands:
      pre: eark-validator validate
      version: [eark-validator, --version]
`)

	writeFile(t, fx.config, fmt.Sprintf(`corpus_root: %q
specifications: %q
runners: %q
results: %q
site: %q
ledger: %q
validate_definitions: false
`, fx.corpus.Root(), specs, filepath.Join(dir, "runners.yaml"), fx.results, fx.site, fx.ledger))

	fx.corpus.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP1", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "valid", Path: "valid", Valid: true, Implemented: true, OnDisk: true},
			{Name: "invalid", Path: "invalid", Implemented: true, OnDisk: true},
		}},
	}})
	fx.corpus.Case(testutil.CaseFixture{Spec: "CSIP", ID: "CSIP2", Rules: []testutil.RuleFixture{
		{ID: 1, Packages: []testutil.PackageFixture{
			{Name: "valid", Path: "valid", Valid: true, Implemented: true, OnDisk: true},
		}},
	}})
	return fx
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// rootOptions returns options pointing at the fixture's configuration.
func (fx *fixture) rootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, ConfigFile: fx.config}
}

// execute runs the full command tree and returns what it printed.
func (fx *fixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", fx.config}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// bareCommand is a command that was never executed, for calling run
// functions directly with test-only options.
func bareCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd
}

// fakeValidator answers version probes and validates by package directory
// name: valid* packages pass, anything else reports CSIP1.
func fakeValidator() runner.ExecutorFunc {
	return func(_ context.Context, d model.RunnerDetails, argv []string) runner.ProcessResult {
		pr := runner.ProcessResult{Details: d, Argv: argv, DurationMS: 3, Timestamp: testutil.Epoch}
		last := argv[len(argv)-1]
		switch {
		case last == "--version":
			pr.Stdout = "eark-validator 2.1.1\n"
		case strings.HasPrefix(filepath.Base(last), "valid"):
			pr.Stdout = validReport
		default:
			pr.Stdout = invalidReport
		}
		return pr
	}
}
