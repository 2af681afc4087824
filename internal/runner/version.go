package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// ResolveVersions runs every runner's version probe once and records the
// last whitespace-delimited token of its output as the runner version.
// A failing probe is a configuration error.
func (c *Config) ResolveVersions(ctx context.Context, ex Executor) error {
	for _, r := range c.Runners {
		pr := ex.Run(ctx, model.RunnerDetails{ID: r.ID, Name: r.Name, URL: r.URL}, r.Commands.Version)
		if pr.Failed() {
			msg := strings.TrimSpace(pr.Stderr)
			if msg == "" {
				msg = pr.Err
			}
			return &ConfigError{Err: fmt.Errorf("runner %s: version command exited %d: %s", r.ID, pr.RetCode, msg)}
		}
		v := ParseVersionOutput(pr.Stdout)
		if v == "" {
			return &ConfigError{Err: fmt.Errorf("runner %s: version command printed nothing", r.ID)}
		}
		r.Version = v
	}
	return nil
}

// ParseVersionOutput returns the last whitespace-delimited token of out.
func ParseVersionOutput(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
