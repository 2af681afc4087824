package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PackageFixture declares one <package> of a rule.
type PackageFixture struct {
	Name        string
	Path        string
	Valid       bool
	Implemented bool
	// OnDisk creates the package directory; METS adds a METS.xml to it.
	OnDisk bool
	METS   bool
}

// RuleFixture declares one <rule>.
type RuleFixture struct {
	ID       int
	Level    string
	Message  string
	Packages []PackageFixture
}

// CaseFixture declares one test case directory.
type CaseFixture struct {
	Spec     string
	ID       string
	Testable string
	// Rules nil omits the <rules> element entirely.
	Rules []RuleFixture
	// RawXML replaces the generated definition when non-empty.
	RawXML string
	// Schema is written to testCase.xsd beside the definition when
	// non-empty.
	Schema string
}

// CorpusBuilder writes corpus fixtures under a temporary root.
type CorpusBuilder struct {
	t    testing.TB
	root string
}

// NewCorpusBuilder creates a builder rooted at a fresh t.TempDir().
func NewCorpusBuilder(t testing.TB) *CorpusBuilder {
	t.Helper()
	return &CorpusBuilder{t: t, root: t.TempDir()}
}

// Root returns the corpus root.
func (b *CorpusBuilder) Root() string {
	return b.root
}

// Case writes a test case directory and returns its path.
func (b *CorpusBuilder) Case(c CaseFixture) string {
	b.t.Helper()

	dir := filepath.Join(b.root, c.Spec, c.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("create test case dir: %v", err)
	}

	doc := c.RawXML
	if doc == "" {
		doc = TestCaseXML(c)
	}
	b.write(filepath.Join(dir, "testCase.xml"), doc)
	if c.Schema != "" {
		b.write(filepath.Join(dir, "testCase.xsd"), c.Schema)
	}

	for _, r := range c.Rules {
		for _, p := range r.Packages {
			if !p.OnDisk {
				continue
			}
			pkgDir := filepath.Join(dir, filepath.FromSlash(p.Path))
			if err := os.MkdirAll(pkgDir, 0o755); err != nil {
				b.t.Fatalf("create package dir: %v", err)
			}
			if p.METS {
				b.write(filepath.Join(pkgDir, "METS.xml"), `<mets xmlns="http://www.loc.gov/METS/"/>`)
			}
		}
	}
	return dir
}

// Dir creates an empty directory under the specification root, for
// directories that are not test cases.
func (b *CorpusBuilder) Dir(spec, name string) string {
	b.t.Helper()
	dir := filepath.Join(b.root, spec, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("create dir: %v", err)
	}
	return dir
}

func (b *CorpusBuilder) write(path, content string) {
	b.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		b.t.Fatalf("write %s: %v", path, err)
	}
}

// TestCaseXML renders a test case definition for c.
func TestCaseXML(c CaseFixture) string {
	testable := c.Testable
	if testable == "" {
		testable = "TRUE"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<testCase testable=%q>\n", testable)
	fmt.Fprintf(&sb, "  <id requirementId=%q specification=%q version=\"2.1.0\"/>\n", c.ID, c.Spec)
	fmt.Fprintf(&sb, "  <references><reference requirementId=%q URL=\"https://earkcsip.dilcis.eu/#%s\">%s</reference></references>\n", c.ID, c.ID, c.ID)
	fmt.Fprintf(&sb, "  <requirementText><name>%s</name><cardinality>1..1</cardinality><level>MUST</level></requirementText>\n", c.ID)
	fmt.Fprintf(&sb, "  <description>Test case %s</description>\n", c.ID)
	sb.WriteString("  <dependencies/>\n")
	if c.Rules != nil {
		sb.WriteString("  <rules>\n")
		for _, r := range c.Rules {
			level := r.Level
			if level == "" {
				level = "ERROR"
			}
			fmt.Fprintf(&sb, "    <rule id=\"%d\">\n", r.ID)
			fmt.Fprintf(&sb, "      <description>Rule %d</description>\n", r.ID)
			fmt.Fprintf(&sb, "      <error level=%q><message>%s</message></error>\n", level, r.Message)
			sb.WriteString("      <corpusPackages>\n")
			for _, p := range r.Packages {
				fmt.Fprintf(&sb, "        <package name=%q isValid=%q isImplemented=%q>\n",
					p.Name, boolAttr(p.Valid), boolAttr(p.Implemented))
				fmt.Fprintf(&sb, "          <path>%s</path>\n", p.Path)
				fmt.Fprintf(&sb, "          <description>Package %s</description>\n", p.Name)
				sb.WriteString("        </package>\n")
			}
			sb.WriteString("      </corpusPackages>\n")
			sb.WriteString("    </rule>\n")
		}
		sb.WriteString("  </rules>\n")
	}
	sb.WriteString("</testCase>\n")
	return sb.String()
}

func boolAttr(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
