package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// Family selects the report shape a validator emits.
type Family string

const (
	FamilyCommonsIP     Family = "commons-ip"
	FamilyEARKValidator Family = "eark-validator"
)

// OutputMode says where a validator writes its report.
type OutputMode string

const (
	// OutputStdout: the report is printed on stdout, possibly after log noise.
	OutputStdout OutputMode = "stdout"
	// OutputFile: stdout names a report file, which is read then removed.
	OutputFile OutputMode = "file"
)

// Args is a command segment. In YAML it is either a sequence of arguments
// or one string split with shell quoting rules.
type Args []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		parts, err := shlex.Split(s)
		if err != nil {
			return fmt.Errorf("line %d: invalid command %q: %w", node.Line, s, err)
		}
		*a = parts
		return nil
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return err
		}
		*a = parts
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a list", node.Line)
	}
}

// Commands holds a runner's command template.
type Commands struct {
	Pre     Args `yaml:"pre"`
	Post    Args `yaml:"post"`
	Version Args `yaml:"version"`
}

// Runner is one configured validator. Version is empty until resolved.
type Runner struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	URL      string     `yaml:"url"`
	Family   Family     `yaml:"family"`
	Output   OutputMode `yaml:"output"`
	Commands Commands   `yaml:"commands"`

	Version string `yaml:"-"`
}

// Details returns the runner's identity for results.
func (r *Runner) Details() model.RunnerDetails {
	return model.RunnerDetails{ID: r.ID, Name: r.Name, Version: r.Version, URL: r.URL}
}

// Command returns the argv validating the package at pkgPath.
func (r *Runner) Command(pkgPath string) []string {
	argv := make([]string, 0, len(r.Commands.Pre)+1+len(r.Commands.Post))
	argv = append(argv, r.Commands.Pre...)
	argv = append(argv, pkgPath)
	return append(argv, r.Commands.Post...)
}

// Config is the parsed runners file.
type Config struct {
	Runners []*Runner `yaml:"runners"`
}

// Runner returns the runner with the given ID.
func (c *Config) Runner(id string) (*Runner, bool) {
	for _, r := range c.Runners {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// ConfigError wraps every problem found in a runners file. It is fatal:
// no validation starts with a broken configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("runner configuration: %v", e.Err)
	}
	return fmt.Sprintf("runner configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig reads and validates the runners file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			cerr.Path = path
			return nil, cerr
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// ParseConfig decodes a runners document, applies defaults and validates
// it.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to parse YAML: %w", err)}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for _, r := range c.Runners {
		if r == nil {
			continue
		}
		if r.Family == "" {
			if r.ID == string(FamilyCommonsIP) {
				r.Family = FamilyCommonsIP
			} else {
				r.Family = FamilyEARKValidator
			}
		}
		if r.Output == "" {
			if r.Family == FamilyCommonsIP {
				r.Output = OutputFile
			} else {
				r.Output = OutputStdout
			}
		}
		if r.Name == "" {
			r.Name = r.ID
		}
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if len(c.Runners) == 0 {
		result = multierror.Append(result, errors.New("no runners configured"))
	}

	seen := make(map[string]bool)
	for i, r := range c.Runners {
		if r == nil {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: empty entry", i))
			continue
		}
		if r.ID == "" {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: id is required", i))
		} else if seen[r.ID] {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: duplicate id %q", i, r.ID))
		}
		seen[r.ID] = true

		if strings.ContainsAny(r.ID, `/\@ `) {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: id %q must not contain '/', '\\', '@' or spaces", i, r.ID))
		}
		if len(r.Commands.Pre) == 0 {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: commands.pre is required", i))
		}
		if len(r.Commands.Version) == 0 {
			result = multierror.Append(result, fmt.Errorf("runners[%d]: commands.version is required", i))
		}
		switch r.Family {
		case FamilyCommonsIP, FamilyEARKValidator:
		default:
			result = multierror.Append(result, fmt.Errorf("runners[%d]: unknown family %q", i, r.Family))
		}
		switch r.Output {
		case OutputStdout, OutputFile:
		default:
			result = multierror.Append(result, fmt.Errorf("runners[%d]: unknown output %q", i, r.Output))
		}
	}
	return result.ErrorOrNil()
}
