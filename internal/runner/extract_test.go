package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Validation report written to '/tmp/report.json'\n", "/tmp/report.json"},
		{`Report: "/tmp/with space.json"`, "/tmp/with space.json"},
		{"starting\n/tmp/plain.json\n", "/tmp/plain.json"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReportPath(tt.in), tt.in)
	}
}

func TestExtractReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"structuralResults":{}}`), 0o644))

	r := &Runner{Output: OutputFile}
	pr := r.ExtractReport(ProcessResult{Stdout: "Report written to '" + path + "'\n"})

	assert.Equal(t, `{"structuralResults":{}}`, pr.Stdout)
	assert.Empty(t, pr.Err)
	assert.NoFileExists(t, path, "report file is removed once read")
}

func TestExtractReport_FileMissing(t *testing.T) {
	r := &Runner{Output: OutputFile}
	pr := r.ExtractReport(ProcessResult{Stdout: "Report written to '/nonexistent/report.json'"})
	assert.Contains(t, pr.Err, "read report file")
	assert.True(t, pr.Failed())
}

func TestExtractReport_StdoutTrimsNoise(t *testing.T) {
	r := &Runner{Output: OutputStdout}
	pr := r.ExtractReport(ProcessResult{Stdout: "INFO loading schemas\n{\"a\":1}"})
	assert.Equal(t, `{"a":1}`, pr.Stdout)

	pr = r.ExtractReport(ProcessResult{Stdout: "no report at all"})
	assert.Equal(t, "no report at all", pr.Stdout)
}

func TestExtractReport_FailedUnchanged(t *testing.T) {
	r := &Runner{Output: OutputFile}
	in := ProcessResult{RetCode: 1, Stdout: "'/tmp/x.json'", Stderr: "boom"}
	assert.Equal(t, in, r.ExtractReport(in))
}
