package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/corpus"
)

// CorpusCoverage is one specification's coverage.
type CorpusCoverage struct {
	Specification string `json:"specification"`
	Version       string `json:"version"`
	TestCases     int    `json:"test_cases"`
	Complete      bool   `json:"complete"`
	corpus.Coverage
}

// CoverageResult is the outcome of the coverage command.
type CoverageResult struct {
	Corpora []CorpusCoverage `json:"corpora"`
}

// Complete reports whether every corpus covers its specification exactly.
func (r CoverageResult) Complete() bool {
	for _, c := range r.Corpora {
		if !c.Complete {
			return false
		}
	}
	return true
}

// WriteText implements TextWriter.
func (r CoverageResult) WriteText(w io.Writer) error {
	for _, c := range r.Corpora {
		mark := "✓"
		if !c.Complete {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s %s: %d test case(s)\n", mark, c.Specification, c.Version, c.TestCases)
		if len(c.MissingCorpus) > 0 {
			fmt.Fprintf(w, "    no test case: %s\n", strings.Join(c.MissingCorpus, ", "))
		}
		if len(c.MissingSpec) > 0 {
			fmt.Fprintf(w, "    no requirement: %s\n", strings.Join(c.MissingSpec, ", "))
		}
	}
	return nil
}

// CoverageOptions holds flags for the coverage command.
type CoverageOptions struct {
	*RootOptions
	Strict bool
}

// NewCoverageCommand creates the coverage command.
func NewCoverageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoverageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Compare specification requirements with corpus test cases",
		Long: `List the requirements that have no test case directory and the test
case directories that match no requirement, per specification.

With --strict, any gap exits with status 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverage(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when coverage is incomplete")

	return cmd
}

func runCoverage(opts *CoverageOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	env, err := loadEnvironment(opts.RootOptions, cmd, f, needSpecifications)
	if err != nil {
		return err
	}
	reg, err := env.LoadRegistry()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCorpus, "failed to load corpus", err)
	}

	result := CoverageResult{Corpora: []CorpusCoverage{}}
	for _, c := range reg.All() {
		cov, err := c.Coverage()
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeSpecifications, "failed to compute coverage", err)
		}
		f.VerboseLog("%s: %d missing test case(s), %d unmatched director(ies)",
			c.ID(), len(cov.MissingCorpus), len(cov.MissingSpec))
		result.Corpora = append(result.Corpora, CorpusCoverage{
			Specification: c.ID(),
			Version:       c.Specification.Version,
			TestCases:     len(c.TestCases),
			Complete:      cov.Complete(),
			Coverage:      cov,
		})
	}

	if opts.Strict && !result.Complete() {
		_ = f.Failure(ErrCodeCoverage, "coverage incomplete", result)
		return NewExitError(ExitFailure, "coverage incomplete")
	}
	return f.Success(result)
}
