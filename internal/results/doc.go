// Package results persists one artifact per (package, validator version).
//
// Artifacts live under a results root mirroring the corpus layout:
//
//	<root>/<specification>/<test case>/<package path>/<runner id>@<version>.json
//
// Re-running a validator at the same version overwrites its artifact. A new
// validator version writes a sibling file, so reports can compare versions
// or pick the latest with Latest.
//
// Files are written as canonical JSON. The validator's own report is nested
// as a structured value rather than spliced in as text, so message strings
// that look like JSON stay strings.
package results
