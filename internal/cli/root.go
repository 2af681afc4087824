package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigFile is the application configuration. When empty,
	// corpora.yaml is read if present.
	ConfigFile string

	// Path overrides; empty keeps the configured value.
	CorpusRoot     string
	Specifications string
	Runners        string
	Results        string
	Site           string
	Ledger         string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the corpora CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "corpora",
		Short: "Conformance testing for E-ARK information package validators",
		Long: `Runs E-ARK information package validators against the test corpus,
records every result, and reports how each validator's verdict compares
with what the corpus expects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "configuration file (default corpora.yaml when present)")
	flags.StringVar(&opts.CorpusRoot, "corpus", "", "corpus root directory")
	flags.StringVar(&opts.Specifications, "specs", "", "specification definitions directory")
	flags.StringVar(&opts.Runners, "runners", "", "validator configuration file")
	flags.StringVar(&opts.Results, "results", "", "results directory")
	flags.StringVar(&opts.Site, "site", "", "report site directory")
	flags.StringVar(&opts.Ledger, "db", "", "run ledger database")

	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewCoverageCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunnersCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}
