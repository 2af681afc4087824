package specification

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads every specification declared in the CUE package in dir.
// The first problem aborts the load: specifications are the source of truth
// for coverage and a partial set would report false drift.
func LoadDir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specifications directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specifications directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(matches) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, err)
	}
	return FromValue(value)
}

// FromValue extracts the specifications under the "specification" field of
// an already built CUE value.
func FromValue(value cue.Value) (*Set, error) {
	specsVal := value.LookupPath(cue.ParsePath("specification"))
	if !specsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoSpecs, Message: "no specification field found", Pos: value.Pos()}
	}

	iter, err := specsVal.Fields()
	if err != nil {
		return nil, formatCUEError(ErrCodeGeneric, err)
	}

	var specs []*Specification
	for iter.Next() {
		spec, err := Compile(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoSpecs, Message: "specification struct is empty", Pos: specsVal.Pos()}
	}

	set, err := NewSet(specs...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return set, nil
}

// Compile builds one Specification from its CUE struct.
func Compile(id string, v cue.Value) (*Specification, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, err)
	}

	spec := &Specification{ID: id}

	versionVal := v.LookupPath(cue.ParsePath("version"))
	if !versionVal.Exists() {
		return nil, &LoadError{Code: ErrCodeVersion, Message: fmt.Sprintf("specification %s: version is required", id), Pos: v.Pos()}
	}
	version, err := versionVal.String()
	if err != nil {
		return nil, formatCUEError(ErrCodeVersion, err)
	}
	spec.Version = version

	if spec.Title, err = optionalString(v, "title"); err != nil {
		return nil, err
	}
	if spec.URL, err = optionalString(v, "url"); err != nil {
		return nil, err
	}

	reqsVal := v.LookupPath(cue.ParsePath("requirements"))
	if reqsVal.Exists() {
		groups, err := reqsVal.Fields()
		if err != nil {
			return nil, formatCUEError(ErrCodeRequirement, err)
		}
		for groups.Next() {
			reqs, err := compileRequirements(id, groups.Value())
			if err != nil {
				return nil, err
			}
			spec.Groups = append(spec.Groups, Group{Name: groups.Label(), Requirements: reqs})
		}
	}

	structVal := v.LookupPath(cue.ParsePath("structural"))
	if structVal.Exists() {
		spec.Structural, err = compileRequirements(id, structVal)
		if err != nil {
			return nil, err
		}
	}

	if _, err := spec.RequirementIDs(); err != nil {
		var dup *DuplicateRequirementError
		if errors.As(err, &dup) {
			return nil, &LoadError{Code: ErrCodeDuplicateReq, Message: dup.Error(), Pos: v.Pos()}
		}
		return nil, err
	}
	return spec, nil
}

func compileRequirements(specID string, list cue.Value) ([]Requirement, error) {
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(ErrCodeRequirement, err)
	}

	var reqs []Requirement
	for iter.Next() {
		item := iter.Value()
		idVal := item.LookupPath(cue.ParsePath("id"))
		if !idVal.Exists() {
			return nil, &LoadError{Code: ErrCodeRequirement, Message: fmt.Sprintf("specification %s: requirement id is required", specID), Pos: item.Pos()}
		}
		reqID, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(ErrCodeRequirement, err)
		}
		if reqID == "" {
			return nil, &LoadError{Code: ErrCodeRequirement, Message: fmt.Sprintf("specification %s: requirement id is empty", specID), Pos: item.Pos()}
		}

		req := Requirement{ID: reqID}
		for field, dst := range map[string]*string{
			"name":     &req.Name,
			"location": &req.Location,
			"level":    &req.Level,
			"text":     &req.Text,
		} {
			s, err := optionalString(item, field)
			if err != nil {
				return nil, err
			}
			*dst = s
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(ErrCodeGeneric, err)
	}
	return s, nil
}
