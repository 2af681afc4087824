// Package casexml binds the corpus test case definition (testCase.xml) to
// Go types and defines the schema validation seam used by the loader.
//
// Decoding is deliberately lenient: elements the schema requires may be
// absent and unknown elements are ignored, so a definition that fails
// schema validation still yields whatever structure it carries. Attribute
// values are kept as strings and interpreted by the caller.
package casexml
