package model

import "strings"

// Level is the severity attached to a rule or a validator message.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
	LevelInfo    Level = "INFO"
)

// ParseLevel maps a level string to a Level. Matching is case-insensitive
// and both WARN and WARNING map to LevelWarning.
//
// Unrecognised input maps to LevelError with known=false so callers can
// surface the coercion instead of hiding it.
func ParseLevel(s string) (level Level, known bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "INFO":
		return LevelInfo, true
	default:
		return LevelError, false
	}
}

// Testable records whether a requirement can be exercised by sample packages.
type Testable string

const (
	TestableTrue    Testable = "TRUE"
	TestableFalse   Testable = "FALSE"
	TestableUnknown Testable = "UNKNOWN"
	TestablePartial Testable = "PARTIAL"
)

// ParseTestable maps s case-insensitively; anything unrecognised is
// TestableUnknown.
func ParseTestable(s string) Testable {
	switch t := Testable(strings.ToUpper(strings.TrimSpace(s))); t {
	case TestableTrue, TestableFalse, TestablePartial, TestableUnknown:
		return t
	default:
		return TestableUnknown
	}
}

// IsTestable reports whether the test case's packages should be run.
func (t Testable) IsTestable() bool {
	return t == TestableTrue || t == TestablePartial
}
