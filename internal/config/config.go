// Package config holds the application settings shared by every command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when --config is not given. Its absence is not an
// error.
const DefaultFile = "corpora.yaml"

// AppConfig is the application configuration.
type AppConfig struct {
	// CorpusRoot holds one directory per specification.
	CorpusRoot string `yaml:"corpus_root"`
	// Specifications is the directory of CUE specification definitions.
	Specifications string `yaml:"specifications"`
	// Runners is the validator configuration file.
	Runners string `yaml:"runners"`
	// Results is the artifact root.
	Results string `yaml:"results"`
	// Site is the HTML report root.
	Site string `yaml:"site"`
	// Ledger is the SQLite run ledger; empty disables it.
	Ledger string `yaml:"ledger"`
	// Timeout bounds one validator invocation, as a Go duration.
	Timeout string `yaml:"timeout"`
	// Jobs is the number of packages validated concurrently.
	Jobs int `yaml:"jobs"`
	// ValidateDefinitions checks testCase.xml files against their schema.
	ValidateDefinitions bool `yaml:"validate_definitions"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		CorpusRoot:          "./eark-ip-test-corpus/corpus",
		Specifications:      "./specifications",
		Runners:             "./runners.yaml",
		Results:             "./results",
		Site:                "./site",
		Ledger:              "./results/ledger.db",
		Timeout:             "60s",
		Jobs:                1,
		ValidateDefinitions: true,
	}
}

// Error reports an unreadable or invalid configuration file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads path over the defaults. When required is false a missing
// file yields the defaults.
func Load(path string, required bool) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			cfg := Default()
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
			return nil, cerr
		}
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes a configuration document over the defaults, applies
// environment overrides and validates the result.
func Parse(r io.Reader) (*AppConfig, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Err: fmt.Errorf("failed to parse YAML: %w", err)}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Err: err}
	}
	return cfg, nil
}

// Environment variables that override file values.
const (
	EnvCorpusRoot = "CORPORA_CORPUS_ROOT"
	EnvResults    = "CORPORA_RESULTS"
	EnvSite       = "CORPORA_SITE"
	EnvJobs       = "CORPORA_JOBS"
)

func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv(EnvCorpusRoot); v != "" {
		c.CorpusRoot = v
	}
	if v := os.Getenv(EnvResults); v != "" {
		c.Results = v
	}
	if v := os.Getenv(EnvSite); v != "" {
		c.Site = v
	}
	if v := os.Getenv(EnvJobs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Jobs = n
		}
	}
}

// TimeoutDuration returns Timeout parsed. Call Validate first.
func (c *AppConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate reports every problem at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error
	required := []struct {
		name, value string
	}{
		{"corpus_root", c.CorpusRoot},
		{"specifications", c.Specifications},
		{"runners", c.Runners},
		{"results", c.Results},
		{"site", c.Site},
	}
	for _, f := range required {
		if f.value == "" {
			result = multierror.Append(result, fmt.Errorf("%s must not be empty", f.name))
		}
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil {
		result = multierror.Append(result, fmt.Errorf("timeout: %w", err))
	} else if d <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Jobs < 1 {
		result = multierror.Append(result, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	if c.Site != "" && c.Site == c.Results {
		result = multierror.Append(result, errors.New("site and results must be different directories"))
	}
	return result.ErrorOrNil()
}
