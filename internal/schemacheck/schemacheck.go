// Package schemacheck validates test case definitions against their XSD
// using libxml2.
package schemacheck

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"

	"github.com/carlwilson/corpus-testing/internal/casexml"
)

// Validator implements casexml.SchemaValidator. Parsed schemas are cached
// by path since every test case directory usually ships the same XSD.
// Safe for concurrent use.
type Validator struct {
	mu      sync.Mutex
	schemas map[string]*xsd.Schema
}

var _ casexml.SchemaValidator = (*Validator)(nil)

// New returns a Validator with an empty schema cache.
func New() *Validator {
	return &Validator{schemas: make(map[string]*xsd.Schema)}
}

// Validate checks doc against the schema at schemaPath. A missing schema
// file is reported as a *casexml.ValidationError so the caller records the
// definition as invalid rather than failing the load.
func (v *Validator) Validate(schemaPath string, doc []byte) error {
	schema, err := v.schema(schemaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &casexml.ValidationError{Messages: []string{fmt.Sprintf("schema %s not found", schemaPath)}}
		}
		return err
	}

	parsed, err := libxml2.Parse(doc)
	if err != nil {
		return &casexml.ValidationError{Messages: []string{err.Error()}}
	}
	defer parsed.Free()

	v.mu.Lock()
	err = schema.Validate(parsed)
	v.mu.Unlock()
	if err == nil {
		return nil
	}

	var multi interface{ Errors() []error }
	if errors.As(err, &multi) {
		verr := &casexml.ValidationError{}
		for _, e := range multi.Errors() {
			verr.Messages = append(verr.Messages, e.Error())
		}
		return verr
	}
	return &casexml.ValidationError{Messages: []string{err.Error()}}
}

func (v *Validator) schema(path string) (*xsd.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[path]; ok {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	s, err := xsd.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	v.schemas[path] = s
	return s, nil
}

// Close frees every cached schema.
func (v *Validator) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for path, s := range v.schemas {
		s.Free()
		delete(v.schemas, path)
	}
	return nil
}
