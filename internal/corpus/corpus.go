package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/specification"
)

// Corpus is every test case for one specification under one root.
// It is read-only after FromDirectory returns.
type Corpus struct {
	// Root is the specification's directory, <corpus root>/<spec ID>.
	Root          string
	Specification *specification.Specification
	TestCases     []*model.TestCase

	// Directories lists the scanned test case directory names, sorted.
	Directories []string
}

// FromDirectory loads the corpus for spec from root/<spec.ID>. A missing
// specification directory yields an empty corpus, which coverage then
// reports as entirely missing.
func (l *Loader) FromDirectory(spec *specification.Specification, root string) (*Corpus, error) {
	dir := filepath.Join(root, spec.ID)
	c := &Corpus{Root: dir, Specification: spec}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Logger.Warn("corpus directory not found", "specification", spec.ID, "path", dir)
			return c, nil
		}
		return nil, fmt.Errorf("scan corpus %s: %w", spec.ID, err)
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), spec.ID) {
			continue
		}
		tc, err := l.LoadTestCase(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load test case %s: %w", e.Name(), err)
		}
		if tc.ID.Specification == "" {
			tc.ID.Specification = spec.ID
		}
		if tc.ID.Version == "" {
			tc.ID.Version = spec.Version
		}
		c.TestCases = append(c.TestCases, tc)
		c.Directories = append(c.Directories, e.Name())
	}
	// os.ReadDir returns entries sorted by name.

	l.Logger.Debug("corpus loaded", "specification", spec.ID, "test_cases", len(c.TestCases))
	return c, nil
}

// ID returns the specification ID.
func (c *Corpus) ID() string {
	return c.Specification.ID
}

// TestCase returns the test case loaded from directory dir.
func (c *Corpus) TestCase(dir string) (*model.TestCase, bool) {
	for _, tc := range c.TestCases {
		if tc.Dir == dir {
			return tc, true
		}
	}
	return nil, false
}

// CaseDir returns the absolute directory of tc.
func (c *Corpus) CaseDir(tc *model.TestCase) string {
	return filepath.Join(c.Root, tc.Dir)
}

// PackageDir returns the directory of pkg within tc.
func (c *Corpus) PackageDir(tc *model.TestCase, pkg *model.Package) string {
	return filepath.Join(c.Root, tc.Dir, filepath.FromSlash(pkg.Path))
}

// TestableCases returns the test cases marked TRUE or PARTIAL.
func (c *Corpus) TestableCases() []*model.TestCase {
	var out []*model.TestCase
	for _, tc := range c.TestCases {
		if tc.Testable.IsTestable() {
			out = append(out, tc)
		}
	}
	return out
}

// Rules flattens the rules of every testable test case.
func (c *Corpus) Rules() []model.Rule {
	var rules []model.Rule
	for _, tc := range c.TestableCases() {
		rules = append(rules, tc.Rules...)
	}
	return rules
}

// Packages flattens the packages of every testable test case.
func (c *Corpus) Packages() []model.Package {
	var pkgs []model.Package
	for _, tc := range c.TestableCases() {
		pkgs = append(pkgs, tc.Packages()...)
	}
	return pkgs
}

// ImplementedPackages returns the sorted, deduplicated names of packages
// backed by a directory, across every test case.
func (c *Corpus) ImplementedPackages() []string {
	set := make(map[string]struct{})
	for _, tc := range c.TestCases {
		for _, name := range tc.ImplementedPackages() {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Coverage reconciles the specification's requirements with the scanned
// directories.
func (c *Corpus) Coverage() (Coverage, error) {
	return Reconcile(c.Specification, c.Directories)
}

// Drift lists every package whose declaration disagrees with the
// filesystem, in test case then rule order.
func (c *Corpus) Drift() []model.Drift {
	var drift []model.Drift
	for _, tc := range c.TestCases {
		for _, r := range tc.Rules {
			for i := range r.Packages {
				p := &r.Packages[i]
				if kind := p.Drift(); kind != "" {
					drift = append(drift, model.Drift{
						Kind:     kind,
						TestCase: tc.Dir,
						Rule:     r.ID,
						Package:  p.Name,
						Path:     p.Path,
					})
				}
			}
		}
	}
	return drift
}

// InvalidDefinitions returns the test cases whose XML failed validation.
func (c *Corpus) InvalidDefinitions() []*model.TestCase {
	var out []*model.TestCase
	for _, tc := range c.TestCases {
		if !tc.XMLValid {
			out = append(out, tc)
		}
	}
	return out
}
