package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// DefinitionProblem is one defect in a test case definition.
type DefinitionProblem struct {
	Specification string `json:"specification"`
	TestCase      string `json:"test_case"`
	Message       string `json:"message"`
}

// ValidationResult holds the findings of the validate command.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	TestCases int                 `json:"test_cases"`
	Problems  []DefinitionProblem `json:"problems,omitempty"`
	Drift     []CorpusDrift       `json:"drift,omitempty"`
}

// CorpusDrift is a drifting package within its specification.
type CorpusDrift struct {
	Specification string `json:"specification"`
	model.Drift
}

// WriteText implements TextWriter.
func (r ValidationResult) WriteText(w io.Writer) error {
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ %d test case definition(s) valid\n", r.TestCases)
		return err
	}
	for _, p := range r.Problems {
		fmt.Fprintf(w, "✗ %s/%s: %s\n", p.Specification, p.TestCase, p.Message)
	}
	for _, d := range r.Drift {
		fmt.Fprintf(w, "✗ %s/%s\n", d.Specification, d.Drift)
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check test case definitions against their schema and the disk",
		Long: `Load every test case definition and report definitions that fail
schema validation, definitions with loading problems, and packages whose
declared implementation status disagrees with the corpus directory.

Any finding exits with status 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	env, err := loadEnvironment(opts, cmd, f, needSpecifications)
	if err != nil {
		return err
	}
	reg, err := env.LoadRegistry()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCorpus, "failed to load corpus", err)
	}

	result := ValidationResult{Valid: true}
	for _, c := range reg.All() {
		result.TestCases += len(c.TestCases)
		for _, tc := range c.TestCases {
			f.VerboseLog("Validated %s/%s", c.ID(), tc.Dir)
			if !tc.XMLValid {
				result.Problems = append(result.Problems, DefinitionProblem{
					Specification: c.ID(),
					TestCase:      tc.Dir,
					Message:       tc.XMLValidationError,
				})
			}
			for _, p := range tc.Problems {
				result.Problems = append(result.Problems, DefinitionProblem{
					Specification: c.ID(),
					TestCase:      tc.Dir,
					Message:       p,
				})
			}
		}
		for _, d := range c.Drift() {
			result.Drift = append(result.Drift, CorpusDrift{Specification: c.ID(), Drift: d})
		}
	}

	if len(result.Problems) > 0 || len(result.Drift) > 0 {
		result.Valid = false
		msg := fmt.Sprintf("%d definition problem(s), %d drifting package(s)", len(result.Problems), len(result.Drift))
		_ = f.Failure(ErrCodeDefinitions, msg, result)
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(result)
}
