// Package specification loads the canonical requirement definitions of the
// E-ARK specifications from CUE files.
//
// A specifications directory holds one CUE package whose top-level
// "specification" struct is keyed by specification ID:
//
//	package specifications
//
//	specification: CSIP: {
//		version: "2.1.0"
//		title:   "Common Specification for Information Packages"
//		requirements: metsRoot: [
//			{id: "CSIP1", name: "Package Identifier", level: "MUST"},
//		]
//		structural: [
//			{id: "CSIPSTR1", name: "Any Information Package MUST be included within a single physical root folder", level: "MUST"},
//		]
//	}
//
// The loaded Specification values are immutable and shared read-only by
// every corpus built against them.
package specification
