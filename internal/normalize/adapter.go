package normalize

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/payload"
	"github.com/carlwilson/corpus-testing/internal/runner"
)

// Section locates one report section and names its fields.
type Section struct {
	// Path is a JSONPath expression evaluated against the whole report.
	Path string
	// StatusKey names the section's status field.
	StatusKey string
	// RuleKey names the message field holding the rule code.
	RuleKey string
}

// Table describes one validator family's report shape.
type Table struct {
	Family     runner.Family
	Structural Section
	// Metadata gates the schema and schematron sections: they are read only
	// when this section is present and non-empty.
	Metadata   string
	Schema     Section
	Schematron Section
	// LevelKey names the message severity field.
	LevelKey string
}

// Tables for the supported families. The commons-ip structural section
// uses the same field names as eark-validator; only its metadata sections
// differ.
var (
	CommonsIPTable = Table{
		Family:     runner.FamilyCommonsIP,
		Structural: Section{Path: "$.structuralResults", StatusKey: "level", RuleKey: "rule_id"},
		Metadata:   "$.metadata",
		Schema:     Section{Path: "$.metadata.schemaResults", StatusKey: "status", RuleKey: "ruleId"},
		Schematron: Section{Path: "$.metadata.schematronResults", StatusKey: "status", RuleKey: "ruleId"},
		LevelKey:   "level",
	}
	EARKValidatorTable = Table{
		Family:     runner.FamilyEARKValidator,
		Structural: Section{Path: "$.structuralResults", StatusKey: "level", RuleKey: "rule_id"},
		Metadata:   "$.metadata",
		Schema:     Section{Path: "$.metadata.schema_results", StatusKey: "level", RuleKey: "rule_id"},
		Schematron: Section{Path: "$.metadata.schematron_results", StatusKey: "level", RuleKey: "rule_id"},
		LevelKey:   "level",
	}
)

// Adapter normalizes the reports of one validator family.
type Adapter struct {
	table  Table
	logger *slog.Logger
}

// ErrUnknownFamily is returned by For for an unsupported family.
var ErrUnknownFamily = errors.New("unknown validator family")

// For returns the adapter for family. A nil logger discards output.
func For(family runner.Family, logger *slog.Logger) (*Adapter, error) {
	switch family {
	case runner.FamilyCommonsIP:
		return NewAdapter(CommonsIPTable, logger), nil
	case runner.FamilyEARKValidator:
		return NewAdapter(EARKValidatorTable, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// NewAdapter builds an adapter from an explicit table.
func NewAdapter(table Table, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{table: table, logger: logger}
}

// Family returns the adapter's validator family.
func (a *Adapter) Family() runner.Family {
	return a.table.Family
}

// Normalize converts one validator invocation into a CorpusTestResult for
// requirementID. It is a pure function of its inputs.
//
// A failed invocation, or stdout that is not a JSON object, yields a
// result whose statuses stay Unknown. Its ErrorMsg is the invocation error
// when the process never completed (timeout, missing binary, unreadable
// report file), else stderr, else stdout.
func (a *Adapter) Normalize(pr runner.ProcessResult, requirementID string) model.CorpusTestResult {
	res := model.NewCorpusTestResult(pr.Details, requirementID)
	res.RetCode = pr.RetCode
	res.DurationMS = pr.DurationMS

	if pr.Failed() {
		res.ErrorMsg = failureMessage(pr)
		return res
	}
	report, err := payload.ParseObject([]byte(pr.Stdout))
	if err != nil {
		res.ErrorMsg = failureMessage(pr)
		if res.ErrorMsg == "" {
			res.ErrorMsg = err.Error()
		}
		return res
	}
	doc := payload.Interface(report)

	unknown := make(map[string]struct{})
	res.StructStatus = a.section(doc, a.table.Structural, res.ErrorIDs, unknown)
	if meta, ok := lookup(doc, a.table.Metadata).(map[string]any); ok && len(meta) > 0 {
		res.SchemaStatus = a.section(doc, a.table.Schema, res.ErrorIDs, unknown)
		res.SchematronStatus = a.section(doc, a.table.Schematron, res.ErrorIDs, unknown)
	}

	if len(unknown) > 0 {
		for lvl := range unknown {
			res.UnknownLevels = append(res.UnknownLevels, lvl)
		}
		sort.Strings(res.UnknownLevels)
		a.logger.Warn("unrecognised message levels recorded as ERROR",
			"runner", pr.Details.ID,
			"requirement", requirementID,
			"levels", strings.Join(res.UnknownLevels, ","))
	}
	return res
}

// section reads one report section into ids and returns its status.
func (a *Adapter) section(doc any, s Section, ids map[string]model.Level, unknown map[string]struct{}) string {
	sec, ok := lookup(doc, s.Path).(map[string]any)
	if !ok || len(sec) == 0 {
		return model.StatusUnknown
	}

	status := model.StatusUnknown
	if v, ok := sec[s.StatusKey].(string); ok {
		status = v
	}

	msgs, _ := sec["messages"].([]any)
	for _, m := range msgs {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		code := model.StatusUnknown
		if v, ok := msg[s.RuleKey].(string); ok {
			code = v
		}
		raw := string(model.LevelError)
		if v, ok := msg[a.table.LevelKey]; ok {
			s, isString := v.(string)
			if !isString {
				s = fmt.Sprint(v)
			}
			raw = s
		}
		level, known := model.ParseLevel(raw)
		if !known {
			unknown[raw] = struct{}{}
		}
		ids[code] = level
	}
	return status
}

// lookup evaluates a JSONPath expression, treating any miss as absent.
func lookup(doc any, path string) any {
	if path == "" {
		return nil
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	return v
}

func failureMessage(pr runner.ProcessResult) string {
	switch {
	case pr.Err != "":
		return pr.Err
	case pr.Stderr != "":
		return pr.Stderr
	default:
		return pr.Stdout
	}
}
