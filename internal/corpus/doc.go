// Package corpus builds the in-memory model of the E-ARK test corpus.
//
// Layout on disk:
//
//	<root>/<specification ID>/<test case dir>/testCase.xml
//	<root>/<specification ID>/<test case dir>/testCase.xsd
//	<root>/<specification ID>/<test case dir>/<package path>/METS.xml
//
// A Registry holds one Corpus per specification. Each Corpus holds the
// test cases whose directory name starts with the specification ID, and
// each test case is loaded from its XML definition with package presence
// checked against the filesystem.
//
// Coverage reconciliation compares specification requirement IDs with the
// scanned directory names using exact matching. A directory is scanned
// when its name starts with the specification ID; it implements a
// requirement only when its name equals that requirement's ID.
package corpus
