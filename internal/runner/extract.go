package runner

import (
	"fmt"
	"os"
	"strings"
)

// ExtractReport turns the raw output of a successful invocation into the
// report text on Stdout, according to the runner's output mode.
//
// For OutputFile the report file named on stdout is read and removed. For
// OutputStdout any text before the first '{' is dropped. Failed invocations
// are returned unchanged. Problems reading the report file are recorded in
// Err rather than returned.
func (r *Runner) ExtractReport(pr ProcessResult) ProcessResult {
	if pr.Failed() {
		return pr
	}
	switch r.Output {
	case OutputFile:
		path := ReportPath(pr.Stdout)
		if path == "" {
			pr.Err = "no report file named on stdout"
			return pr
		}
		data, err := os.ReadFile(path)
		if err != nil {
			pr.Err = fmt.Sprintf("read report file: %v", err)
			return pr
		}
		if err := os.Remove(path); err != nil {
			pr.Err = fmt.Sprintf("remove report file: %v", err)
		}
		pr.Stdout = string(data)
	default:
		if i := strings.IndexByte(pr.Stdout, '{'); i > 0 {
			pr.Stdout = pr.Stdout[i:]
		}
	}
	return pr
}

// ReportPath extracts the report file path from validator output such as
//
//	Report written to 'target/report.json'
//
// It prefers the text between the first and last quote characters and
// otherwise falls back to the last line.
func ReportPath(stdout string) string {
	s := strings.TrimSpace(stdout)
	for _, q := range []string{"'", `"`} {
		first := strings.Index(s, q)
		last := strings.LastIndex(s, q)
		if first >= 0 && last > first {
			return strings.TrimSpace(s[first+1 : last])
		}
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
