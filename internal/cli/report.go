package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/report"
	"github.com/carlwilson/corpus-testing/internal/results"
)

// ReportResult is the outcome of the report command.
type ReportResult struct {
	Site  string `json:"site"`
	Pages int    `json:"pages"`
}

// WriteText implements TextWriter.
func (r ReportResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Report: %d page(s) in %s\n", r.Pages, r.Site)
	return err
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Render the report site from stored results",
		Long: `Render the static HTML report from the results directory without
running any validator. The newest stored version of each validator is
reported for every package.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, cmd)
		},
	}
}

func runReport(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	env, err := loadEnvironment(opts, cmd, f, needSpecifications)
	if err != nil {
		return err
	}
	reg, err := env.LoadRegistry()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCorpus, "failed to load corpus", err)
	}

	repo := results.NewRepository(env.Config.Results, env.Logger)
	stats, err := renderSite(env, reg, repo)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReport, "failed to render report", err)
	}
	return f.Success(ReportResult{Site: env.Config.Site, Pages: stats.Pages})
}

// renderSite rebuilds the site from repo. It runs only once every result
// of a run is stored.
func renderSite(env *Environment, reg *corpus.Registry, repo *results.Repository) (report.Stats, error) {
	r, err := report.NewRenderer(env.Config.Site, report.NewBuilder(repo), env.Logger)
	if err != nil {
		return report.Stats{}, err
	}
	if err := r.Setup(); err != nil {
		return report.Stats{}, err
	}
	stats, err := r.Render(reg)
	if err != nil {
		return report.Stats{}, err
	}
	env.Logger.Info("report rendered", "site", env.Config.Site, "pages", stats.Pages)
	return stats, nil
}
