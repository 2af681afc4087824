package casexml

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "document is not valid", (&ValidationError{}).Error())
	assert.Equal(t, "a", (&ValidationError{Messages: []string{"a"}}).Error())
	assert.Equal(t, "a (and 2 more)", (&ValidationError{Messages: []string{"a", "b", "c"}}).Error())
}

func TestFirstMessage(t *testing.T) {
	assert.Equal(t, "", FirstMessage(nil))

	wrapped := fmt.Errorf("validate: %w", &ValidationError{Messages: []string{" Element 'rule': missing id. ", "second"}})
	assert.Equal(t, "Element 'rule': missing id.", FirstMessage(wrapped))

	assert.Equal(t, "schema not found", FirstMessage(errors.New("schema not found")))
}

func TestValidatorFunc(t *testing.T) {
	var gotPath string
	v := ValidatorFunc(func(schemaPath string, doc []byte) error {
		gotPath = schemaPath
		return nil
	})
	assert.NoError(t, v.Validate("testCase.xsd", nil))
	assert.Equal(t, "testCase.xsd", gotPath)
}
