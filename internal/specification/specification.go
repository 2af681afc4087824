package specification

import (
	"fmt"
	"sort"
)

// Requirement is one requirement of a specification.
type Requirement struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Level    string `json:"level,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Group is a named section of requirements, kept in declaration order.
type Group struct {
	Name         string        `json:"name"`
	Requirements []Requirement `json:"requirements"`
}

// Specification is one versioned E-ARK specification.
type Specification struct {
	ID         string        `json:"id"`
	Version    string        `json:"version"`
	Title      string        `json:"title,omitempty"`
	URL        string        `json:"url,omitempty"`
	Groups     []Group       `json:"groups"`
	Structural []Requirement `json:"structural"`
}

// DuplicateRequirementError reports a requirement ID declared twice in one
// specification. It indicates a corrupt definition and is always fatal.
type DuplicateRequirementError struct {
	Specification string
	ID            string
}

func (e *DuplicateRequirementError) Error() string {
	return fmt.Sprintf("specification %s: duplicate requirement ID %q", e.Specification, e.ID)
}

// Requirements returns every requirement: grouped requirements in group
// order, then structural requirements.
func (s *Specification) Requirements() []Requirement {
	var reqs []Requirement
	for _, g := range s.Groups {
		reqs = append(reqs, g.Requirements...)
	}
	return append(reqs, s.Structural...)
}

// RequirementIDs returns the set of requirement IDs. A duplicate ID, whether
// within a group, across groups or between grouped and structural
// requirements, returns a *DuplicateRequirementError.
func (s *Specification) RequirementIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	for _, r := range s.Requirements() {
		if _, dup := ids[r.ID]; dup {
			return nil, &DuplicateRequirementError{Specification: s.ID, ID: r.ID}
		}
		ids[r.ID] = struct{}{}
	}
	return ids, nil
}

// Requirement looks up a requirement by ID.
func (s *Specification) Requirement(id string) (Requirement, bool) {
	for _, r := range s.Requirements() {
		if r.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// Set is the loaded collection of specifications, ordered by ID.
type Set struct {
	specs []*Specification
}

// NewSet builds a Set from specs, sorted by ID. Two specifications with the
// same ID are rejected.
func NewSet(specs ...*Specification) (*Set, error) {
	sorted := make([]*Specification, len(specs))
	copy(sorted, specs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("specification %s declared twice", sorted[i].ID)
		}
	}
	return &Set{specs: sorted}, nil
}

// All returns the specifications in ID order.
func (s *Set) All() []*Specification {
	out := make([]*Specification, len(s.specs))
	copy(out, s.specs)
	return out
}

// Get returns the specification with the given ID.
func (s *Set) Get(id string) (*Specification, bool) {
	for _, spec := range s.specs {
		if spec.ID == id {
			return spec, true
		}
	}
	return nil, false
}

// Len returns the number of specifications.
func (s *Set) Len() int {
	return len(s.specs)
}
