package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/results"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/store"
	"github.com/carlwilson/corpus-testing/internal/tester"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Clear    bool
	Jobs     int
	Timeout  time.Duration
	NoReport bool

	// Executor overrides the process executor (for testing).
	// If nil, validators run as child processes.
	Executor runner.Executor

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs tester.RunIDGenerator
}

// TestResult is the outcome of the test command.
type TestResult struct {
	tester.Summary
	Pages  int    `json:"pages"`
	Site   string `json:"site,omitempty"`
	Ledger string `json:"ledger,omitempty"`
}

// WriteText implements TextWriter.
func (r TestResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintf(w, "  packages:    %d\n", r.Packages)
	fmt.Fprintf(w, "  invocations: %d (%d failed to produce a report)\n", r.Invocations, r.Failures)
	fmt.Fprintf(w, "  outcomes:    %d pass, %d fail, %d error\n", r.Outcomes.Pass, r.Outcomes.Fail, r.Outcomes.Error)
	if r.Site != "" {
		fmt.Fprintf(w, "Report: %d page(s) in %s\n", r.Pages, r.Site)
	}
	return nil
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run every validator against the corpus",
		Long: `Run every configured validator against every implemented package in
the corpus, store one result artifact per invocation, record the run in
the ledger, then render the report site.

A validator that crashes or prints no report yields a failed result, not a
command error: the exit code is 0 once the run completes.

Example:
  corpora test --clear --jobs 4
  corpora test --runners ./runners.yaml --timeout 2m --no-report`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "remove previous results before running")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "packages validated concurrently (default from configuration)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-invocation timeout (default from configuration)")
	cmd.Flags().BoolVar(&opts.NoReport, "no-report", false, "skip rendering the report site")

	return cmd
}

func runTest(opts *TestOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	env, err := loadEnvironment(opts.RootOptions, cmd, f, needSpecifications|needRunners)
	if err != nil {
		return err
	}
	cfg := env.Config
	logger := env.Logger

	jobs := cfg.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}
	timeout := cfg.TimeoutDuration()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	reg, err := env.LoadRegistry()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCorpus, "failed to load corpus", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	exec := opts.Executor
	if exec == nil {
		exec = runner.NewExec(timeout, logger)
	}
	if err := env.Runners.ResolveVersions(ctx, exec); err != nil {
		return f.Fail(ExitCommandError, ErrCodeRunners, "failed to resolve runner versions", err)
	}
	for _, r := range env.Runners.Runners {
		logger.Info("runner ready", "runner", r.ID, "version", r.Version)
	}

	repo := results.NewRepository(cfg.Results, logger)
	if opts.Clear {
		logger.Info("clearing results", "path", repo.Root())
		if err := repo.Clear(); err != nil {
			return f.Fail(ExitCommandError, ErrCodeResults, "failed to clear results", err)
		}
	}

	testerOpts := []tester.Option{tester.WithJobs(jobs), tester.WithLogger(logger)}
	if opts.RunIDs != nil {
		testerOpts = append(testerOpts, tester.WithRunIDGenerator(opts.RunIDs))
	}
	if cfg.Ledger != "" {
		st, err := openLedger(cfg.Ledger)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()
		testerOpts = append(testerOpts, tester.WithLedger(st))
	}

	t, err := tester.New(env.Runners, exec, repo, testerOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeRunners, "failed to prepare runners", err)
	}

	logger.Info("run starting", "jobs", jobs, "timeout", timeout, "corpora", len(reg.All()))
	summary, err := t.Run(ctx, reg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return f.Fail(ExitCommandError, ErrCodeRun, "test run interrupted", err)
		}
		return f.Fail(ExitCommandError, ErrCodeRun, "test run failed", err)
	}
	logger.Info("run finished", "run_id", summary.RunID, "invocations", summary.Invocations, "failures", summary.Failures)

	result := TestResult{Summary: summary, Ledger: cfg.Ledger}
	if !opts.NoReport {
		stats, err := renderSite(env, reg, repo)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeReport, "failed to render report", err)
		}
		result.Pages = stats.Pages
		result.Site = cfg.Site
	}
	return f.Success(result)
}

// openLedger opens the SQLite ledger, creating its directory.
func openLedger(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return store.Open(path)
}
