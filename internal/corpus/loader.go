package corpus

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carlwilson/corpus-testing/internal/casexml"
	"github.com/carlwilson/corpus-testing/internal/model"
)

// Test case definition file names.
const (
	DefinitionFile = "testCase.xml"
	SchemaFile     = "testCase.xsd"
	METSFile       = "METS.xml"
)

// Loader reads test case directories. A nil Validator skips schema
// validation and every definition is reported valid.
type Loader struct {
	Validator casexml.SchemaValidator
	Logger    *slog.Logger
}

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(validator casexml.SchemaValidator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{Validator: validator, Logger: logger}
}

// LoadTestCase loads the test case in dir.
//
// Schema validation failures are advisory: the definition is still decoded
// and XMLValid/XMLValidationError record the outcome. A definition that is
// missing or not well-formed XML yields a test case with no rules, marked
// invalid. Only a failure to read the directory itself is returned as an
// error.
func (l *Loader) LoadTestCase(dir string) (*model.TestCase, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("test case directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test case directory: %s is not a directory", dir)
	}

	name := filepath.Base(dir)
	tc := &model.TestCase{
		ID:       model.TestCaseID{RequirementID: name},
		Dir:      name,
		Testable: model.TestableUnknown,
		XMLValid: true,
		Rules:    []model.Rule{},
	}

	data, err := os.ReadFile(filepath.Join(dir, DefinitionFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", DefinitionFile, err)
		}
		tc.XMLValid = false
		tc.XMLValidationError = fmt.Sprintf("%s not found", DefinitionFile)
		l.Logger.Warn("test case definition missing", "test_case", name)
		return tc, nil
	}

	if l.Validator != nil {
		if verr := l.Validator.Validate(filepath.Join(dir, SchemaFile), data); verr != nil {
			tc.XMLValid = false
			tc.XMLValidationError = casexml.FirstMessage(verr)
			l.Logger.Debug("test case definition failed schema validation",
				"test_case", name, "error", tc.XMLValidationError)
		}
	}

	doc, err := casexml.DecodeBytes(data)
	if err != nil {
		tc.XMLValid = false
		if tc.XMLValidationError == "" {
			tc.XMLValidationError = err.Error()
		}
		tc.Problems = append(tc.Problems, err.Error())
		l.Logger.Warn("test case definition not parseable", "test_case", name, "error", err)
		return tc, nil
	}

	populate(tc, doc, dir)
	return tc, nil
}

func populate(tc *model.TestCase, doc *casexml.TestCase, dir string) {
	if doc.ID.RequirementID != "" {
		tc.ID.RequirementID = doc.ID.RequirementID
	} else {
		tc.Problems = append(tc.Problems, "id/@requirementId is missing, using directory name")
	}
	if tc.ID.RequirementID != tc.Dir {
		tc.Problems = append(tc.Problems,
			fmt.Sprintf("requirement ID %s does not match directory %s", tc.ID.RequirementID, tc.Dir))
	}
	tc.ID.Specification = doc.ID.Specification
	tc.ID.Version = doc.ID.Version
	tc.Description = doc.Description
	tc.RequirementText = string(doc.RequirementText)
	tc.Testable = model.ParseTestable(doc.Testable)

	for _, ref := range doc.References {
		tc.References = append(tc.References, ref.URL)
	}
	for _, dep := range doc.Dependencies {
		tc.Dependencies = append(tc.Dependencies, model.Dependency{
			RequirementID: dep.RequirementID,
			URL:           dep.URL,
			Text:          dep.Text,
		})
	}

	if doc.Rules == nil {
		return
	}
	seen := make(map[int]bool)
	for i, r := range doc.Rules.Rule {
		rule, problems := buildRule(r, i, dir)
		if seen[rule.ID] {
			problems = append(problems, fmt.Sprintf("rule %d declared more than once", rule.ID))
		}
		seen[rule.ID] = true
		tc.Rules = append(tc.Rules, rule)
		tc.Problems = append(tc.Problems, problems...)
	}
}

func buildRule(r casexml.Rule, index int, dir string) (model.Rule, []string) {
	var problems []string

	id, err := strconv.Atoi(r.ID)
	if err != nil {
		id = index + 1
		problems = append(problems, fmt.Sprintf("rule %d: invalid id %q, using position", id, r.ID))
	}

	rule := model.Rule{
		ID:          id,
		Description: r.Description,
		Level:       model.LevelError,
		Packages:    []model.Package{},
	}
	if r.Error != nil {
		level, known := model.ParseLevel(r.Error.Level)
		if !known {
			problems = append(problems, fmt.Sprintf("rule %d: unknown level %q, using ERROR", id, r.Error.Level))
		}
		rule.Level = level
		rule.Message = r.Error.Message
	} else {
		problems = append(problems, fmt.Sprintf("rule %d: no error element", id))
	}

	for _, p := range r.Packages {
		pkg := model.Package{
			Name:          p.Name,
			Path:          p.Path,
			Description:   p.Description,
			IsValid:       p.Valid(),
			IsImplemented: p.Implemented(),
		}
		switch {
		case p.Path == "":
			problems = append(problems, fmt.Sprintf("rule %d: package %s has no path", id, p.Name))
		case !filepath.IsLocal(filepath.FromSlash(p.Path)):
			problems = append(problems, fmt.Sprintf("rule %d: package %s path %q leaves the test case directory", id, p.Name, p.Path))
		default:
			pkgDir := filepath.Join(dir, filepath.FromSlash(p.Path))
			pkg.HasDirectory = isDir(pkgDir)
			pkg.HasMETS = isFile(filepath.Join(pkgDir, METSFile))
		}
		rule.Packages = append(rule.Packages, pkg)
	}
	return rule, problems
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
