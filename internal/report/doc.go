// Package report builds page contexts from corpora and stored results and
// renders them as a static site:
//
//	<site>/index.html
//	<site>/<specification>/index.html
//	<site>/<specification>/<test case>/index.html
//	<site>/<specification>/<test case>/<package name>/index.html
//
// Rendering only reads artifacts, so it can be repeated without running
// any validator.
package report
