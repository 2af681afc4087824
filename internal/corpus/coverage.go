package corpus

import (
	"sort"

	"github.com/carlwilson/corpus-testing/internal/specification"
)

// Coverage is the two-way difference between a specification's
// requirement IDs and the corpus's test case directories.
type Coverage struct {
	// MissingCorpus holds requirement IDs with no test case directory.
	MissingCorpus []string `json:"missing_corpus"`
	// MissingSpec holds directory names that match no requirement ID.
	MissingSpec []string `json:"missing_spec"`
}

// Complete reports whether both differences are empty.
func (c Coverage) Complete() bool {
	return len(c.MissingCorpus) == 0 && len(c.MissingSpec) == 0
}

// Reconcile computes coverage of spec by dirs. Matching is exact: a
// directory implements a requirement only when its name equals the
// requirement ID. A duplicate requirement ID in spec returns a
// *specification.DuplicateRequirementError.
func Reconcile(spec *specification.Specification, dirs []string) (Coverage, error) {
	reqs, err := spec.RequirementIDs()
	if err != nil {
		return Coverage{}, err
	}

	present := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		present[d] = struct{}{}
	}

	cov := Coverage{MissingCorpus: []string{}, MissingSpec: []string{}}
	for id := range reqs {
		if _, ok := present[id]; !ok {
			cov.MissingCorpus = append(cov.MissingCorpus, id)
		}
	}
	for d := range present {
		if _, ok := reqs[d]; !ok {
			cov.MissingSpec = append(cov.MissingSpec, d)
		}
	}
	sort.Strings(cov.MissingCorpus)
	sort.Strings(cov.MissingSpec)
	return cov, nil
}
