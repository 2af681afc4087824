package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/carlwilson/corpus-testing/internal/model"
)

// DefaultTimeout bounds one validator invocation.
const DefaultTimeout = 60 * time.Second

// RetCodeNotRun marks a process that timed out or never started.
const RetCodeNotRun = -1

// ProcessResult is the raw outcome of one validator invocation.
type ProcessResult struct {
	Details    model.RunnerDetails `json:"details"`
	Argv       []string            `json:"argv,omitempty"`
	RetCode    int                 `json:"ret_code"`
	Stdout     string              `json:"stdout"`
	Stderr     string              `json:"stderr"`
	DurationMS int64               `json:"duration_ms"`
	Timestamp  time.Time           `json:"timestamp"`
	// Err describes a failure of the invocation itself: timeout, binary
	// not found, unreadable report file.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the invocation did not exit cleanly.
func (pr ProcessResult) Failed() bool {
	return pr.RetCode != 0 || pr.Err != ""
}

// Executor runs one command to completion.
type Executor interface {
	Run(ctx context.Context, details model.RunnerDetails, argv []string) ProcessResult
}

// Exec runs commands as child processes with a per-invocation timeout.
type Exec struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// Now stamps results; defaults to time.Now.
	Now func() time.Time
}

var _ Executor = (*Exec)(nil)

// NewExec creates an Exec. A zero timeout uses DefaultTimeout.
func NewExec(timeout time.Duration, logger *slog.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exec{Timeout: timeout, Logger: logger, Now: time.Now}
}

// Run executes argv. Cancelling ctx or exceeding the timeout kills the
// process; the result then carries RetCodeNotRun and an Err message.
func (e *Exec) Run(ctx context.Context, details model.RunnerDetails, argv []string) ProcessResult {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	pr := ProcessResult{Details: details, Argv: argv, Timestamp: now().UTC()}
	if len(argv) == 0 {
		pr.RetCode = RetCodeNotRun
		pr.Err = "empty command"
		return pr
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit the pipes must not keep Wait blocked after
	// the process is killed.
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	pr.DurationMS = time.Since(start).Milliseconds()
	pr.Stdout = stdout.String()
	pr.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		pr.RetCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		pr.RetCode = RetCodeNotRun
		pr.Err = fmt.Sprintf("timed out after %s", timeout)
	case ctx.Err() != nil:
		pr.RetCode = RetCodeNotRun
		pr.Err = fmt.Sprintf("cancelled: %v", ctx.Err())
	case errors.As(err, &exitErr):
		pr.RetCode = exitErr.ExitCode()
	default:
		pr.RetCode = RetCodeNotRun
		pr.Err = err.Error()
	}

	e.Logger.Debug("process finished",
		"runner", details.ID,
		"command", argv[0],
		"ret_code", pr.RetCode,
		"duration_ms", pr.DurationMS)
	return pr
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, details model.RunnerDetails, argv []string) ProcessResult

// Run calls f.
func (f ExecutorFunc) Run(ctx context.Context, details model.RunnerDetails, argv []string) ProcessResult {
	return f(ctx, details, argv)
}
