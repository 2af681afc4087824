package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/store"
)

// HistoryResult lists recorded runs.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// WriteText implements TextWriter.
func (r HistoryResult) WriteText(w io.Writer) error {
	if len(r.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	for _, run := range r.Runs {
		fmt.Fprintf(w, "%s  %s  %-9s  %d package(s), %d invocation(s), %d failure(s)\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Status,
			run.Packages, run.Invocations, run.Failures)
	}
	return nil
}

// RunDetail is one run with its per-runner outcome counts.
type RunDetail struct {
	store.Run
	Runners []store.RunnerSummary `json:"runners"`
}

// WriteText implements TextWriter.
func (d RunDetail) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s (%s)\n", d.ID, d.Status)
	fmt.Fprintf(w, "  started:  %s\n", d.StartedAt.Format(time.RFC3339))
	if !d.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  finished: %s\n", d.FinishedAt.Format(time.RFC3339))
	}
	for _, s := range d.Runners {
		fmt.Fprintf(w, "  %s@%s: %d pass, %d fail, %d error\n",
			s.RunnerID, s.RunnerVersion, s.Pass, s.Fail, s.Error)
	}
	return nil
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded test runs",
		Long: `List the runs recorded in the ledger, newest first. Given a run id,
show that run's outcome counts per validator version.

Example:
  corpora history --limit 5
  corpora history 0190a1b2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	env, err := loadEnvironment(opts.RootOptions, cmd, f, 0)
	if err != nil {
		return err
	}
	path := env.Config.Ledger
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeLedger, "ledger disabled in configuration", nil)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeLedger, fmt.Sprintf("ledger not found: %s", path), nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			env.Logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		runs, err := st.Runs(ctx, opts.Limit)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeLedger, "failed to read runs", err)
		}
		return f.Success(HistoryResult{Runs: runs})
	}

	run, err := st.GetRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		return f.Fail(ExitCommandError, ErrCodeLedger, fmt.Sprintf("run not found: %s", args[0]), err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to read run", err)
	}
	summaries, err := st.RunnerSummary(ctx, run.ID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, "failed to summarise run", err)
	}
	return f.Success(RunDetail{Run: run, Runners: summaries})
}
