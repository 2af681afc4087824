package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/carlwilson/corpus-testing/internal/casexml"
	"github.com/carlwilson/corpus-testing/internal/config"
	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/runner"
	"github.com/carlwilson/corpus-testing/internal/schemacheck"
	"github.com/carlwilson/corpus-testing/internal/specification"
)

// Environment is the process-wide state a command works from. It is built
// once per invocation and passed explicitly.
type Environment struct {
	Config         *config.AppConfig
	Specifications *specification.Set
	// Runners is nil for commands that do not run validators.
	Runners *runner.Config
	Logger  *slog.Logger
}

type needs int

const (
	needSpecifications needs = 1 << iota
	needRunners
)

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger writes text logs to w: debug with --verbose, info otherwise.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile, true)
	} else {
		cfg, err = config.Load(config.DefaultFile, false)
	}
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{opts.CorpusRoot, &cfg.CorpusRoot},
		{opts.Specifications, &cfg.Specifications},
		{opts.Runners, &cfg.Runners},
		{opts.Results, &cfg.Results},
		{opts.Site, &cfg.Site},
		{opts.Ledger, &cfg.Ledger},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &config.Error{Path: opts.ConfigFile, Err: err}
	}
	return cfg, nil
}

// loadEnvironment builds the Environment, reporting failures through f.
func loadEnvironment(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter, n needs) (*Environment, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	env := &Environment{Config: cfg, Logger: newLogger(opts.Verbose, cmd.ErrOrStderr())}

	if n&needSpecifications != 0 {
		env.Logger.Debug("loading specifications", "dir", cfg.Specifications)
		specs, err := specification.LoadDir(cfg.Specifications)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeSpecifications, "failed to load specifications", err)
		}
		env.Specifications = specs
		env.Logger.Debug("specifications loaded", "count", specs.Len())
	}

	if n&needRunners != 0 {
		env.Logger.Debug("loading runners", "path", cfg.Runners)
		rc, err := runner.LoadConfig(cfg.Runners)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeRunners, "failed to load runners", err)
		}
		env.Runners = rc
	}
	return env, nil
}

// LoadRegistry reads every specification's corpus. Test case definitions
// are schema-checked when the configuration asks for it.
func (e *Environment) LoadRegistry() (reg *corpus.Registry, err error) {
	if e.Specifications == nil {
		return nil, errors.New("specifications not loaded")
	}
	var validator casexml.SchemaValidator
	if e.Config.ValidateDefinitions {
		sv := schemacheck.New()
		defer func() {
			if cerr := sv.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		validator = sv
	}
	loader := corpus.NewLoader(validator, e.Logger)
	return loader.LoadRegistry(e.Specifications, e.Config.CorpusRoot)
}
