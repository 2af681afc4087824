package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/runner"
)

// RunnerInfo describes one configured validator.
type RunnerInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	URL     string   `json:"url,omitempty"`
	Family  string   `json:"family"`
	Output  string   `json:"output"`
	Command []string `json:"command"`
	Version string   `json:"version,omitempty"`
}

// RunnersResult is the outcome of the runners command.
type RunnersResult struct {
	Runners []RunnerInfo `json:"runners"`
}

// WriteText implements TextWriter.
func (r RunnersResult) WriteText(w io.Writer) error {
	for _, ri := range r.Runners {
		version := ri.Version
		if version == "" {
			version = "(unresolved)"
		}
		fmt.Fprintf(w, "%s %s [%s, %s]\n", ri.ID, version, ri.Family, ri.Output)
		fmt.Fprintf(w, "    %s\n", strings.Join(ri.Command, " "))
	}
	return nil
}

// RunnersOptions holds flags for the runners command.
type RunnersOptions struct {
	*RootOptions
	Resolve bool

	// Executor overrides the process executor (for testing).
	Executor runner.Executor
}

// NewRunnersCommand creates the runners command.
func NewRunnersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunnersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runners",
		Short: "List configured validators",
		Long: `Print every validator in the runners file with its report family,
output mode and command template. With --resolve, each validator's version
command is run first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunners(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Resolve, "resolve", false, "run each validator's version command")

	return cmd
}

func runRunners(opts *RunnersOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	env, err := loadEnvironment(opts.RootOptions, cmd, f, needRunners)
	if err != nil {
		return err
	}

	if opts.Resolve {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		exec := opts.Executor
		if exec == nil {
			exec = runner.NewExec(env.Config.TimeoutDuration(), env.Logger)
		}
		if err := env.Runners.ResolveVersions(ctx, exec); err != nil {
			return f.Fail(ExitCommandError, ErrCodeRunners, "failed to resolve runner versions", err)
		}
	}

	result := RunnersResult{Runners: []RunnerInfo{}}
	for _, r := range env.Runners.Runners {
		result.Runners = append(result.Runners, RunnerInfo{
			ID:      r.ID,
			Name:    r.Name,
			URL:     r.URL,
			Family:  string(r.Family),
			Output:  string(r.Output),
			Command: r.Command("<package>"),
			Version: r.Version,
		})
	}
	return f.Success(result)
}
