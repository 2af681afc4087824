package store

import (
	"path/filepath"
	"testing"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record for a valid result from runnerID@version.
func createTestRecord(runID, pkg, runnerID, version string, outcome model.Outcome) Record {
	res := model.NewCorpusTestResult(model.RunnerDetails{ID: runnerID, Name: runnerID, Version: version}, "CSIP1")
	res.RetCode = 0
	res.StructStatus = model.StatusWellFormed
	res.SchemaStatus = model.StatusValid
	res.SchematronStatus = model.StatusValid
	return Record{
		RunID:         runID,
		Specification: "CSIP",
		TestCase:      "CSIP1",
		Package:       pkg,
		Result:        res,
		Outcome:       outcome,
	}
}
