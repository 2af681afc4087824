package casexml

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaValidator checks an XML document against an XSD file.
//
// Validate returns nil when doc is valid, a *ValidationError when the
// document was checked and rejected, and any other error when validation
// could not be performed at all (unreadable or broken schema).
type SchemaValidator interface {
	Validate(schemaPath string, doc []byte) error
}

// ValidationError carries the messages reported by the schema validator in
// the order it reported them.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	switch len(e.Messages) {
	case 0:
		return "document is not valid"
	case 1:
		return e.Messages[0]
	default:
		return fmt.Sprintf("%s (and %d more)", e.Messages[0], len(e.Messages)-1)
	}
}

// First returns the first reported message.
func (e *ValidationError) First() string {
	if len(e.Messages) == 0 {
		return "document is not valid"
	}
	return e.Messages[0]
}

// FirstMessage extracts a single human readable line from a Validate error.
func FirstMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return strings.TrimSpace(verr.First())
	}
	return strings.TrimSpace(err.Error())
}

// ValidatorFunc adapts a function to SchemaValidator.
type ValidatorFunc func(schemaPath string, doc []byte) error

// Validate calls f.
func (f ValidatorFunc) Validate(schemaPath string, doc []byte) error {
	return f(schemaPath, doc)
}
