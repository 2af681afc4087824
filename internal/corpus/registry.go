package corpus

import (
	"fmt"

	"github.com/carlwilson/corpus-testing/internal/specification"
)

// Registry holds one Corpus per specification, in specification ID order.
type Registry struct {
	corpora []*Corpus
}

// LoadRegistry loads a corpus for every specification in specs from root.
// Specification integrity is checked before any corpus is read: a
// duplicate requirement ID aborts the whole load.
func (l *Loader) LoadRegistry(specs *specification.Set, root string) (*Registry, error) {
	for _, spec := range specs.All() {
		if _, err := spec.RequirementIDs(); err != nil {
			return nil, err
		}
	}

	r := &Registry{}
	for _, spec := range specs.All() {
		c, err := l.FromDirectory(spec, root)
		if err != nil {
			return nil, fmt.Errorf("corpus %s: %w", spec.ID, err)
		}
		r.corpora = append(r.corpora, c)
	}
	return r, nil
}

// NewRegistry wraps already built corpora.
func NewRegistry(corpora ...*Corpus) *Registry {
	return &Registry{corpora: corpora}
}

// All returns the corpora in specification ID order.
func (r *Registry) All() []*Corpus {
	out := make([]*Corpus, len(r.corpora))
	copy(out, r.corpora)
	return out
}

// Get returns the corpus for a specification ID.
func (r *Registry) Get(specID string) (*Corpus, bool) {
	for _, c := range r.corpora {
		if c.ID() == specID {
			return c, true
		}
	}
	return nil, false
}
