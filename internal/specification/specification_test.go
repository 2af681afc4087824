package specification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() *Specification {
	return &Specification{
		ID:      "CSIP",
		Version: "2.1.0",
		Groups: []Group{
			{Name: "metsRoot", Requirements: []Requirement{{ID: "CSIP1"}, {ID: "CSIP2"}}},
		},
		Structural: []Requirement{{ID: "CSIPSTR1"}},
	}
}

func TestSpecification_RequirementIDs(t *testing.T) {
	ids, err := sampleSpec().RequirementIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "CSIP1")
	assert.Contains(t, ids, "CSIPSTR1")
}

func TestSpecification_RequirementIDs_Duplicates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Specification)
	}{
		{"within group", func(s *Specification) {
			s.Groups[0].Requirements = append(s.Groups[0].Requirements, Requirement{ID: "CSIP1"})
		}},
		{"across groups", func(s *Specification) {
			s.Groups = append(s.Groups, Group{Name: "metsHdr", Requirements: []Requirement{{ID: "CSIP2"}}})
		}},
		{"structural shadows grouped", func(s *Specification) {
			s.Structural = append(s.Structural, Requirement{ID: "CSIP1"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := sampleSpec()
			tt.mutate(spec)

			_, err := spec.RequirementIDs()
			var dup *DuplicateRequirementError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, "CSIP", dup.Specification)
		})
	}
}

func TestSpecification_Requirement(t *testing.T) {
	spec := sampleSpec()
	r, ok := spec.Requirement("CSIPSTR1")
	require.True(t, ok)
	assert.Equal(t, "CSIPSTR1", r.ID)

	_, ok = spec.Requirement("CSIP99")
	assert.False(t, ok)
}

func TestNewSet_SortsAndRejectsDuplicates(t *testing.T) {
	set, err := NewSet(&Specification{ID: "SIP"}, &Specification{ID: "CSIP"}, &Specification{ID: "AIP"})
	require.NoError(t, err)

	var ids []string
	for _, s := range set.All() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"AIP", "CSIP", "SIP"}, ids)
	assert.Equal(t, 3, set.Len())

	got, ok := set.Get("CSIP")
	require.True(t, ok)
	assert.Equal(t, "CSIP", got.ID)

	_, err = NewSet(&Specification{ID: "CSIP"}, &Specification{ID: "CSIP"})
	require.Error(t, err)
}
