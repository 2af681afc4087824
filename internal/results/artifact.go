package results

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/payload"
	"github.com/carlwilson/corpus-testing/internal/runner"
)

// Process is the persisted form of a runner.ProcessResult. When stdout
// holds a JSON object it is kept in Report and Stdout is left empty.
type Process struct {
	Argv       []string         `json:"argv,omitempty"`
	RetCode    int              `json:"ret_code"`
	Report     payload.Document `json:"report"`
	Stdout     string           `json:"stdout,omitempty"`
	Stderr     string           `json:"stderr,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Timestamp  time.Time        `json:"timestamp"`
	Err        string           `json:"error,omitempty"`
}

// NewProcess captures pr, nesting its stdout as a structured report when
// it parses as a JSON object.
func NewProcess(pr runner.ProcessResult) Process {
	p := Process{
		Argv:       pr.Argv,
		RetCode:    pr.RetCode,
		Stderr:     pr.Stderr,
		DurationMS: pr.DurationMS,
		Timestamp:  pr.Timestamp.UTC(),
		Err:        pr.Err,
	}
	if obj, err := payload.ParseObject([]byte(pr.Stdout)); err == nil {
		p.Report = payload.Document{Value: obj}
	} else {
		p.Stdout = pr.Stdout
	}
	return p
}

// ProcessResult rebuilds the runner view, re-encoding a nested report.
func (p Process) ProcessResult(details model.RunnerDetails) (runner.ProcessResult, error) {
	pr := runner.ProcessResult{
		Details:    details,
		Argv:       p.Argv,
		RetCode:    p.RetCode,
		Stdout:     p.Stdout,
		Stderr:     p.Stderr,
		DurationMS: p.DurationMS,
		Timestamp:  p.Timestamp,
		Err:        p.Err,
	}
	if !p.Report.IsZero() {
		data, err := payload.MarshalOrdered(p.Report.Value)
		if err != nil {
			return pr, fmt.Errorf("encode report: %w", err)
		}
		pr.Stdout = string(data)
	}
	return pr, nil
}

// Artifact is one validator invocation against one corpus package.
type Artifact struct {
	Specification string                 `json:"specification"`
	TestCase      string                 `json:"test_case"`
	Package       string                 `json:"package"`
	Path          string                 `json:"path"`
	Process       Process                `json:"process"`
	Result        model.CorpusTestResult `json:"result"`
}

// Key locates an artifact's directory under the results root.
type Key struct {
	Specification string
	TestCase      string
	// Path is the package path relative to its test case directory.
	Path string
}

// Key returns the artifact's location key.
func (a Artifact) Key() Key {
	return Key{Specification: a.Specification, TestCase: a.TestCase, Path: a.Path}
}

// FileName is the artifact's file name within its package directory.
func (a Artifact) FileName() string {
	return FileName(a.Result.Details)
}

// FileName returns "<id>@<version>.json", or "<id>.json" for an
// unversioned runner.
func FileName(d model.RunnerDetails) string {
	return sanitize(d.Key()) + ext
}

const ext = ".json"

// sanitize keeps a version string usable as a file name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}

// Encode returns the artifact as key-ordered JSON. Tool output is written
// exactly as the tool produced it.
func (a Artifact) Encode() ([]byte, error) {
	return payload.OrderedJSON(a)
}

// Decode parses an artifact written by Encode.
func Decode(data []byte) (Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if a.Result.ErrorIDs == nil {
		a.Result.ErrorIDs = map[string]model.Level{}
	}
	return a, nil
}
