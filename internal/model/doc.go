// Package model holds the corpus data model: test cases, their rules and
// sample packages, and the normalized result of running one validator
// against one package.
//
// The tree is built once by the corpus loader and treated as read-only
// afterwards. Derived sets (flattened packages, implemented names, drift)
// are recomputed on every call rather than cached.
//
// model imports nothing internal.
package model
