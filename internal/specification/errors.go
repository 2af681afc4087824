package specification

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for specification loading.
const (
	ErrCodeGeneric      = "E001"
	ErrCodeScanError    = "E002"
	ErrCodeNoFiles      = "E003"
	ErrCodeLoadFailed   = "E004"
	ErrCodeNotFound     = "E005"
	ErrCodeBuildFailed  = "E006"
	ErrCodeNoSpecs      = "E201"
	ErrCodeVersion      = "E202"
	ErrCodeRequirement  = "E203"
	ErrCodeDuplicateReq = "E204"
)

// LoadError is a specification loading failure with an optional CUE
// source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// formatCUEError converts the first CUE error into a LoadError carrying its
// position.
func formatCUEError(code string, err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
