package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlwilson/corpus-testing/internal/corpus"
)

//go:embed templates/*.html.tmpl templates/site.css
var templateFS embed.FS

// StaticDir is the site subdirectory Setup leaves in place.
const StaticDir = "static"

const indexFile = "index.html"

// crumb is one breadcrumb link; an empty Href marks the current page.
type crumb struct {
	Label string
	Href  string
}

// page wraps a context with what the shared layout needs.
type page struct {
	// Root is the relative path from the page back to the site root.
	Root   string
	Crumbs []crumb
	Data   any
}

// Stats counts what Render wrote.
type Stats struct {
	Pages int `json:"pages"`
}

// Renderer writes the static site.
type Renderer struct {
	root    string
	builder *Builder
	pages   map[string]*template.Template
	logger  *slog.Logger
}

// NewRenderer parses the embedded templates. A nil logger discards output.
func NewRenderer(root string, b *Builder, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Renderer{root: root, builder: b, pages: make(map[string]*template.Template), logger: logger}
	for _, name := range []string{"home", "corpus", "case", "package"} {
		t, err := template.New(name).ParseFS(templateFS,
			"templates/layout.html.tmpl",
			"templates/"+name+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Setup prepares the site root: old index.html and every directory except
// static/ are removed, and a default stylesheet is written when static/
// has none.
func (r *Renderer) Setup() error {
	entries, err := os.ReadDir(r.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read site root: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(r.root, e.Name())
		switch {
		case e.IsDir() && e.Name() != StaticDir:
			err = os.RemoveAll(path)
		case !e.IsDir() && e.Name() == indexFile:
			err = os.Remove(path)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", path, err)
		}
	}

	static := filepath.Join(r.root, StaticDir)
	if err := os.MkdirAll(static, 0o755); err != nil {
		return fmt.Errorf("failed to create site root: %w", err)
	}
	css := filepath.Join(static, "site.css")
	if _, err := os.Stat(css); errors.Is(err, fs.ErrNotExist) {
		data, err := templateFS.ReadFile("templates/site.css")
		if err != nil {
			return err
		}
		if err := os.WriteFile(css, data, 0o644); err != nil {
			return fmt.Errorf("failed to write stylesheet: %w", err)
		}
	}
	return nil
}

// Render writes every page for reg. Call it only after validation has
// finished; it reads whatever artifacts exist.
func (r *Renderer) Render(reg *corpus.Registry) (Stats, error) {
	var stats Stats

	home, err := r.builder.Home(reg)
	if err != nil {
		return stats, err
	}
	if err := r.write(&stats, "home", nil, page{Crumbs: []crumb{{Label: "Home"}}, Data: home}); err != nil {
		return stats, err
	}

	for _, c := range reg.All() {
		if err := r.renderCorpus(&stats, c); err != nil {
			return stats, err
		}
	}
	r.logger.Info("report rendered", "root", r.root, "pages", stats.Pages)
	return stats, nil
}

func (r *Renderer) renderCorpus(stats *Stats, c *corpus.Corpus) error {
	cc, err := r.builder.Corpus(c)
	if err != nil {
		return err
	}
	specCrumbs := []crumb{{Label: "Home", Href: "../"}, {Label: c.ID()}}
	if err := r.write(stats, "corpus", []string{c.ID()}, page{Root: "../", Crumbs: specCrumbs, Data: cc}); err != nil {
		return err
	}

	for _, tc := range c.TestCases {
		caseCtx, err := r.builder.Case(c, tc)
		if err != nil {
			return err
		}
		crumbs := []crumb{{Label: "Home", Href: "../../"}, {Label: c.ID(), Href: "../"}, {Label: tc.Dir}}
		if err := r.write(stats, "case", []string{c.ID(), tc.Dir}, page{Root: "../../", Crumbs: crumbs, Data: caseCtx}); err != nil {
			return err
		}

		written := make(map[string]struct{})
		for _, rule := range tc.Rules {
			for _, pkg := range rule.Packages {
				if _, dup := written[pkg.Name]; dup {
					continue
				}
				written[pkg.Name] = struct{}{}
				if !safeSegment(pkg.Name) {
					r.logger.Warn("package name is not a usable directory name; page skipped",
						"test_case", tc.Dir, "package", pkg.Name)
					continue
				}
				pc, err := r.builder.Package(c, tc, rule, pkg)
				if err != nil {
					return err
				}
				crumbs := []crumb{
					{Label: "Home", Href: "../../../"},
					{Label: c.ID(), Href: "../../"},
					{Label: tc.Dir, Href: "../"},
					{Label: pkg.Name},
				}
				p := page{Root: "../../../", Crumbs: crumbs, Data: pc}
				if err := r.write(stats, "package", []string{c.ID(), tc.Dir, pkg.Name}, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// safeSegment reports whether name can be used as one path segment.
func safeSegment(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.IsLocal(name)
}

func (r *Renderer) write(stats *Stats, name string, segments []string, p page) error {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}
	dir := filepath.Join(append([]string{r.root}, segments...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, indexFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	stats.Pages++
	return nil
}
