// Package normalize converts raw validator output into the uniform
// CorpusTestResult status model.
//
// Each validator family has an Adapter: a table of JSONPath expressions
// locating the structural, schema and schematron sections of its report,
// plus the field names its messages use. The adapter is chosen once from
// the runner's family; no code branches on runner identity per field.
//
// Message maps from the three sections are merged in that order and a
// later section overwrites an earlier one for the same code. Validators
// report one concern per code in practice, so the last section wins.
package normalize
