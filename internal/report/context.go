package report

import (
	"fmt"

	"github.com/carlwilson/corpus-testing/internal/corpus"
	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/results"
)

// ResultSource loads stored artifacts. Implemented by results.Repository.
type ResultSource interface {
	Load(k results.Key) ([]results.Artifact, error)
}

// CorpusSummary is one home page row.
type CorpusSummary struct {
	Corpus    *corpus.Corpus
	TestCases int
	Testable  int
	Packages  int
	Complete  bool
}

// HomeContext is the data for the site index.
type HomeContext struct {
	Corpora []CorpusSummary
}

// CorpusContext is the data for one specification's page.
type CorpusContext struct {
	Corpus        *corpus.Corpus
	MissingCorpus []string
	MissingSpec   []string
	Drift         []model.Drift
	// Invalid lists test cases whose definition failed schema validation.
	Invalid []*model.TestCase
}

// CaseContext is the data for one test case page.
type CaseContext struct {
	TestCase *model.TestCase
	Corpus   *corpus.Corpus
	Tally    model.Tally
}

// RunnerOutcome is one validator's latest verdict on a package.
type RunnerOutcome struct {
	Details model.RunnerDetails
	Result  model.CorpusTestResult
	Outcome model.Outcome
}

// PackageContext is the data for one package page, carrying the chain
// needed for breadcrumbs.
type PackageContext struct {
	Package  model.Package
	Rule     model.Rule
	Case     *model.TestCase
	Corpus   *corpus.Corpus
	Outcomes []RunnerOutcome
}

// Builder assembles page contexts. It makes no decisions of its own
// beyond grading stored results with model.Evaluate.
type Builder struct {
	source ResultSource
}

// NewBuilder returns a builder reading results from src. A nil src builds
// contexts without outcomes.
func NewBuilder(src ResultSource) *Builder {
	return &Builder{source: src}
}

// Home builds the index context.
func (b *Builder) Home(reg *corpus.Registry) (HomeContext, error) {
	var home HomeContext
	for _, c := range reg.All() {
		cov, err := c.Coverage()
		if err != nil {
			return HomeContext{}, err
		}
		home.Corpora = append(home.Corpora, CorpusSummary{
			Corpus:    c,
			TestCases: len(c.TestCases),
			Testable:  len(c.TestableCases()),
			Packages:  len(c.Packages()),
			Complete:  cov.Complete(),
		})
	}
	return home, nil
}

// Corpus builds the context for c. A duplicate requirement ID in c's
// specification is returned as an error.
func (b *Builder) Corpus(c *corpus.Corpus) (CorpusContext, error) {
	cov, err := c.Coverage()
	if err != nil {
		return CorpusContext{}, err
	}
	drift := c.Drift()
	if drift == nil {
		drift = []model.Drift{}
	}
	return CorpusContext{
		Corpus:        c,
		MissingCorpus: cov.MissingCorpus,
		MissingSpec:   cov.MissingSpec,
		Drift:         drift,
		Invalid:       c.InvalidDefinitions(),
	}, nil
}

// Case builds the context for tc, tallying the latest outcome of every
// runner over the test case's packages. A path shared by several rules
// counts once.
func (b *Builder) Case(c *corpus.Corpus, tc *model.TestCase) (CaseContext, error) {
	ctx := CaseContext{TestCase: tc, Corpus: c}
	seen := make(map[string]struct{})
	for _, r := range tc.Rules {
		for _, p := range r.Packages {
			if _, dup := seen[p.Path]; dup {
				continue
			}
			seen[p.Path] = struct{}{}
			outs, err := b.outcomes(c, tc, p)
			if err != nil {
				return CaseContext{}, err
			}
			for _, o := range outs {
				ctx.Tally.Add(o.Outcome)
			}
		}
	}
	return ctx, nil
}

// Package builds the context for pkg declared by rule in tc. The
// context's copy of pkg carries the latest result of every runner in
// TestResults; the corpus tree itself is not modified.
func (b *Builder) Package(c *corpus.Corpus, tc *model.TestCase, rule model.Rule, pkg model.Package) (PackageContext, error) {
	outs, err := b.outcomes(c, tc, pkg)
	if err != nil {
		return PackageContext{}, err
	}
	pkg.TestResults = make([]model.CorpusTestResult, 0, len(outs))
	for _, o := range outs {
		pkg.TestResults = append(pkg.TestResults, o.Result)
	}
	return PackageContext{
		Package:  pkg,
		Rule:     rule,
		Case:     tc,
		Corpus:   c,
		Outcomes: outs,
	}, nil
}

func (b *Builder) outcomes(c *corpus.Corpus, tc *model.TestCase, pkg model.Package) ([]RunnerOutcome, error) {
	out := []RunnerOutcome{}
	if b.source == nil || !pkg.Runnable() {
		return out, nil
	}
	arts, err := b.source.Load(results.Key{Specification: c.ID(), TestCase: tc.Dir, Path: pkg.Path})
	if err != nil {
		return nil, fmt.Errorf("load results for %s/%s: %w", tc.Dir, pkg.Path, err)
	}
	for _, a := range results.Latest(arts) {
		out = append(out, RunnerOutcome{
			Details: a.Result.Details,
			Result:  a.Result,
			Outcome: model.Evaluate(pkg, a.Result),
		})
	}
	return out, nil
}
