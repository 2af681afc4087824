package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/results"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/specification"
	"github.com/carlwilson/corpus-testing/internal/store"
	"github.com/carlwilson/corpus-testing/internal/tester"
	"github.com/carlwilson/corpus-testing/internal/testutil"
)

// Harness holds the collaborators for one scenario execution.
type Harness struct {
	scenario *Scenario
	dir      string
	store    *store.Store
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory and a fresh in-memory
// ledger, both discarded on return. An error means the scenario could not
// run at all; failed assertions are reported in the Result.
//
// Execution flow:
// 1. Write the corpus and load it with the production loader
// 2. Run the tester with a scripted executor
// 3. Read outcomes and tallies back from the ledger
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "corpora-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		dir:      dir,
		store:    st,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background())
}

func (h *Harness) corpusRoot() string {
	return filepath.Join(h.dir, "corpus")
}

func (h *Harness) run(ctx context.Context) (*Result, error) {
	if err := h.writeCorpus(); err != nil {
		return nil, err
	}

	spec := h.specification()
	c, err := corpus.NewLoader(nil, h.logger).FromDirectory(spec, h.corpusRoot())
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	t, err := tester.New(h.runners(), h.executor(), results.NewRepository(filepath.Join(h.dir, "results"), h.logger),
		tester.WithJobs(h.scenario.Jobs),
		tester.WithLedger(h.store),
		tester.WithRunIDGenerator(testutil.NewSequentialIDGenerator(h.scenario.Name)),
		tester.WithClock(testutil.NewDeterministicClock(0)),
		tester.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create tester: %w", err)
	}

	summary, err := t.Run(ctx, corpus.NewRegistry(c))
	if err != nil {
		return nil, fmt.Errorf("test run failed: %w", err)
	}

	result := NewResult()
	result.Summary = summary
	if result.Coverage, err = c.Coverage(); err != nil {
		return nil, fmt.Errorf("failed to compute coverage: %w", err)
	}
	if err := h.readLedger(ctx, summary.RunID, result); err != nil {
		return nil, err
	}

	for _, a := range h.scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// writeCorpus lays the scenario's test cases out as a corpus directory.
func (h *Harness) writeCorpus() error {
	specDir := filepath.Join(h.corpusRoot(), h.scenario.Specification.ID)
	for _, tc := range h.scenario.TestCases {
		caseDir := filepath.Join(specDir, tc.ID)
		if err := os.MkdirAll(caseDir, 0o755); err != nil {
			return fmt.Errorf("failed to create test case %s: %w", tc.ID, err)
		}

		fixture := testutil.CaseFixture{Spec: h.scenario.Specification.ID, ID: tc.ID, Testable: tc.Testable, Rules: []testutil.RuleFixture{}}
		for _, r := range tc.Rules {
			rf := testutil.RuleFixture{ID: r.ID, Level: r.Level, Message: r.Message}
			for _, p := range r.Packages {
				rf.Packages = append(rf.Packages, testutil.PackageFixture{
					Name:        p.Name,
					Path:        packagePath(p),
					Valid:       p.Valid,
					Implemented: p.Implemented,
				})
				if p.OnDisk {
					if err := os.MkdirAll(filepath.Join(caseDir, filepath.FromSlash(packagePath(p))), 0o755); err != nil {
						return fmt.Errorf("failed to create package %s/%s: %w", tc.ID, p.Name, err)
					}
				}
			}
			fixture.Rules = append(fixture.Rules, rf)
		}

		def := filepath.Join(caseDir, corpus.DefinitionFile)
		if err := os.WriteFile(def, []byte(testutil.TestCaseXML(fixture)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", def, err)
		}
	}
	return nil
}

func packagePath(p PackageDef) string {
	if p.Path != "" {
		return p.Path
	}
	return p.Name
}

func (h *Harness) specification() *specification.Specification {
	def := h.scenario.Specification
	group := specification.Group{Name: "requirements"}
	for _, id := range def.Requirements {
		group.Requirements = append(group.Requirements, specification.Requirement{ID: id})
	}
	return &specification.Specification{
		ID:      def.ID,
		Version: def.Version,
		Groups:  []specification.Group{group},
	}
}

func (h *Harness) runners() *runner.Config {
	cfg := &runner.Config{}
	for _, rd := range h.scenario.Runners {
		family := rd.Family
		if family == "" {
			family = runner.FamilyEARKValidator
		}
		cfg.Runners = append(cfg.Runners, &runner.Runner{
			ID:       rd.ID,
			Name:     rd.ID,
			Family:   family,
			Output:   runner.OutputStdout,
			Commands: runner.Commands{Pre: runner.Args{"scripted", rd.ID}},
			Version:  rd.Version,
		})
	}
	return cfg
}

// executor answers from the scenario's scripted responses, keyed by runner
// id and the package directory relative to the corpus root.
func (h *Harness) executor() runner.Executor {
	responses := make(map[string]Response)
	for _, tc := range h.scenario.TestCases {
		for _, r := range tc.Rules {
			for _, p := range r.Packages {
				for id, resp := range p.Responses {
					responses[responseKey(id, h.scenario.Specification.ID+"/"+tc.ID+"/"+packagePath(p))] = resp
				}
			}
		}
	}

	root := h.corpusRoot()
	return runner.ExecutorFunc(func(_ context.Context, d model.RunnerDetails, argv []string) runner.ProcessResult {
		pr := runner.ProcessResult{Details: d, Argv: argv, DurationMS: 1, Timestamp: testutil.Epoch}
		rel, err := filepath.Rel(root, argv[len(argv)-1])
		if err != nil {
			pr.RetCode = runner.RetCodeNotRun
			pr.Err = err.Error()
			return pr
		}
		resp, ok := responses[responseKey(d.ID, filepath.ToSlash(rel))]
		if !ok {
			pr.RetCode = 1
			pr.Stderr = fmt.Sprintf("no scripted response for %s on %s", d.ID, filepath.ToSlash(rel))
			return pr
		}
		return resp.process(pr)
	})
}

func responseKey(runnerID, pkg string) string {
	return runnerID + "\x00" + pkg
}

// process fills pr from the scripted response.
func (r Response) process(pr runner.ProcessResult) runner.ProcessResult {
	pr.RetCode = r.RetCode
	pr.Stderr = r.Stderr
	pr.Err = r.Error
	if r.Error != "" && r.RetCode == 0 {
		pr.RetCode = runner.RetCodeNotRun
	}
	var out strings.Builder
	out.WriteString(r.Stdout)
	if r.Report != nil {
		data, err := json.Marshal(r.Report)
		if err != nil {
			pr.RetCode = runner.RetCodeNotRun
			pr.Err = fmt.Sprintf("scripted report: %v", err)
			return pr
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.Write(data)
	}
	pr.Stdout = out.String()
	return pr
}

// readLedger fills the outcomes and tallies recorded for runID.
func (h *Harness) readLedger(ctx context.Context, runID string, result *Result) error {
	stored, err := h.store.Results(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read results: %w", err)
	}
	for _, s := range stored {
		ids := make([]string, 0, len(s.ErrorIDs))
		for id := range s.ErrorIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		result.Outcomes = append(result.Outcomes, PackageOutcome{
			TestCase: s.TestCase,
			Package:  s.Package,
			Runner:   s.RunnerID,
			Version:  s.RunnerVersion,
			Outcome:  s.Outcome,
			Valid:    s.Valid,
			ErrorIDs: ids,
		})
	}
	sort.Slice(result.Outcomes, func(i, j int) bool {
		a, b := result.Outcomes[i], result.Outcomes[j]
		if a.TestCase != b.TestCase {
			return a.TestCase < b.TestCase
		}
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Runner < b.Runner
	})

	if result.Tallies, err = h.store.RunnerSummary(ctx, runID); err != nil {
		return fmt.Errorf("failed to read tallies: %w", err)
	}
	return nil
}
