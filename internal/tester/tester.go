package tester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/normalize"
	"github.com/carlwilson/corpus-testing/internal/results"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/store"
)

// RunIDGenerator generates run identifiers.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// Clock supplies run start and finish times.
type Clock interface {
	Now() time.Time
}

// ArtifactWriter persists one artifact. Implemented by results.Repository.
type ArtifactWriter interface {
	Save(a results.Artifact) (string, error)
}

// Ledger records runs and their results. Implemented by store.Store.
type Ledger interface {
	BeginRun(ctx context.Context, id string, startedAt time.Time) error
	FinishRun(ctx context.Context, id string, finishedAt time.Time, status store.RunStatus, totals store.RunTotals) error
	RecordResult(ctx context.Context, rec store.Record) error
}

// Summary reports what a run did.
type Summary struct {
	RunID       string `json:"run_id"`
	Packages    int    `json:"packages"`
	Invocations int    `json:"invocations"`
	// Failures counts invocations that produced no usable report.
	Failures int         `json:"failures"`
	Outcomes model.Tally `json:"outcomes"`
}

func (s *Summary) add(o Summary) {
	s.Packages += o.Packages
	s.Invocations += o.Invocations
	s.Failures += o.Failures
	s.Outcomes.Pass += o.Outcomes.Pass
	s.Outcomes.Fail += o.Outcomes.Fail
	s.Outcomes.Error += o.Outcomes.Error
}

func (s Summary) totals() store.RunTotals {
	return store.RunTotals{Packages: s.Packages, Invocations: s.Invocations, Failures: s.Failures}
}

// Tester runs validators against corpora.
//
// Thread-safety: Run may be called from one goroutine at a time.
type Tester struct {
	runners  []*runner.Runner
	adapters map[string]*normalize.Adapter
	exec     runner.Executor
	out      ArtifactWriter
	ledger   Ledger
	ids      RunIDGenerator
	clock    Clock
	jobs     int
	logger   *slog.Logger
}

// Option configures a Tester.
type Option func(*Tester)

// WithJobs sets how many packages are validated concurrently. Values
// below 1 mean 1.
func WithJobs(n int) Option {
	return func(t *Tester) {
		t.jobs = max(n, 1)
	}
}

// WithLedger records runs and results in l.
func WithLedger(l Ledger) Option {
	return func(t *Tester) {
		t.ledger = l
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(t *Tester) {
		t.ids = g
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(t *Tester) {
		t.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tester) {
		t.logger = l
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// New creates a Tester for the runners in cfg. Runner versions should be
// resolved beforehand; they key the artifacts.
//
// Returns an error when a runner's family has no normalizer.
func New(cfg *runner.Config, exec runner.Executor, out ArtifactWriter, opts ...Option) (*Tester, error) {
	if exec == nil || out == nil {
		return nil, errors.New("tester: executor and artifact writer are required")
	}
	t := &Tester{
		exec:   exec,
		out:    out,
		ids:    UUIDv7Generator{},
		clock:  wallClock{},
		jobs:   1,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.adapters = make(map[string]*normalize.Adapter, len(cfg.Runners))
	for _, r := range cfg.Runners {
		a, err := normalize.For(r.Family, t.logger)
		if err != nil {
			return nil, fmt.Errorf("runner %s: %w", r.ID, err)
		}
		t.runners = append(t.runners, r)
		t.adapters[r.ID] = a
	}
	return t, nil
}

// job is one package to validate.
type job struct {
	corpus   *corpus.Corpus
	testCase *model.TestCase
	pkg      model.Package
}

func (j job) requirementID() string {
	if j.testCase.ID.RequirementID != "" {
		return j.testCase.ID.RequirementID
	}
	return j.testCase.Dir
}

// plan lists the packages a run over reg would validate, in run order.
func plan(reg *corpus.Registry) []job {
	var jobs []job
	for _, c := range reg.All() {
		for _, tc := range c.TestCases {
			seen := make(map[string]struct{})
			for _, r := range tc.Rules {
				for _, p := range r.Packages {
					if !p.Runnable() {
						continue
					}
					if _, dup := seen[p.Path]; dup {
						continue
					}
					seen[p.Path] = struct{}{}
					jobs = append(jobs, job{corpus: c, testCase: tc, pkg: p})
				}
			}
		}
	}
	return jobs
}

// Run validates every runnable package in reg with every runner.
//
// The returned Summary covers the work completed even when err is non-nil.
// Cancelling ctx stops the run after in-flight invocations are killed; the
// ledger then marks the run cancelled.
func (t *Tester) Run(ctx context.Context, reg *corpus.Registry) (Summary, error) {
	sum := Summary{RunID: t.ids.Generate()}
	if t.ledger != nil {
		if err := t.ledger.BeginRun(ctx, sum.RunID, t.clock.Now()); err != nil {
			return sum, err
		}
	}

	jobs := plan(reg)
	t.logger.Info("test run started",
		"run_id", sum.RunID,
		"packages", len(jobs),
		"runners", len(t.runners),
		"jobs", t.jobs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.jobs)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		j := j
		g.Go(func() error {
			part, err := t.validate(gctx, sum.RunID, j)
			mu.Lock()
			sum.add(part)
			mu.Unlock()
			return err
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	status := store.RunComplete
	if runErr != nil {
		status = store.RunCancelled
	}
	if t.ledger != nil {
		finishCtx := context.WithoutCancel(ctx)
		if err := t.ledger.FinishRun(finishCtx, sum.RunID, t.clock.Now(), status, sum.totals()); err != nil && runErr == nil {
			runErr = err
		}
	}

	t.logger.Info("test run finished",
		"run_id", sum.RunID,
		"status", string(status),
		"packages", sum.Packages,
		"invocations", sum.Invocations,
		"failures", sum.Failures)
	return sum, runErr
}

// validate runs every runner against one package.
func (t *Tester) validate(ctx context.Context, runID string, j job) (Summary, error) {
	var part Summary
	reqID := j.requirementID()
	dir := j.corpus.PackageDir(j.testCase, &j.pkg)

	for _, r := range t.runners {
		if err := ctx.Err(); err != nil {
			return part, err
		}
		pr := t.exec.Run(ctx, r.Details(), r.Command(dir))
		if err := ctx.Err(); err != nil {
			// Killed by cancellation, not a validator verdict.
			return part, err
		}
		pr = r.ExtractReport(pr)
		res := t.adapters[r.ID].Normalize(pr, reqID)
		outcome := model.Evaluate(j.pkg, res)

		art := results.Artifact{
			Specification: j.corpus.ID(),
			TestCase:      j.testCase.Dir,
			Package:       j.pkg.Name,
			Path:          j.pkg.Path,
			Process:       results.NewProcess(pr),
			Result:        res,
		}
		if _, err := t.out.Save(art); err != nil {
			return part, fmt.Errorf("save result for %s/%s %s: %w", j.testCase.Dir, j.pkg.Path, r.ID, err)
		}
		if t.ledger != nil {
			rec := store.Record{
				RunID:         runID,
				Specification: art.Specification,
				TestCase:      art.TestCase,
				Package:       j.pkg.Path,
				Result:        res,
				Outcome:       outcome,
			}
			if err := t.ledger.RecordResult(ctx, rec); err != nil {
				return part, err
			}
		}

		part.Invocations++
		part.Outcomes.Add(outcome)
		if outcome == model.OutcomeError {
			part.Failures++
			t.logger.Warn("validator failed",
				"runner", r.ID,
				"test_case", j.testCase.Dir,
				"package", j.pkg.Name,
				"ret_code", res.RetCode,
				"error", res.ErrorMsg)
		} else {
			t.logger.Debug("validator ran",
				"runner", r.ID,
				"test_case", j.testCase.Dir,
				"package", j.pkg.Name,
				"outcome", string(outcome),
				"duration_ms", res.DurationMS)
		}
	}
	part.Packages = 1
	return part, nil
}
