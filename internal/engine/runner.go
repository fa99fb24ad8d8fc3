// Package engine runs the external search executable and captures its output.
//
// The engine is an opaque program: it receives the query as its only argument,
// resolves its data files relative to the working directory and prints a single
// "body|flag" line on stdout. This package knows nothing about that format; it
// only bounds, times and reports the process.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when the engine does not exit within the configured timeout.
	ErrTimeout = errors.New("engine: execution timed out")
	// ErrOutputTooLarge is returned when stdout or stderr exceed the capture limit.
	ErrOutputTooLarge = errors.New("engine: output exceeded capture limit")
	// ErrBusy is returned when the worker pool cannot accept another invocation.
	ErrBusy = errors.New("engine: too many concurrent invocations")
	// ErrClosed is returned after the pool has been released.
	ErrClosed = errors.New("engine: pool closed")
)

// DefaultMaxOutputBytes bounds captured stdout and stderr individually.
const DefaultMaxOutputBytes = 1024 * 1024

// waitDelay bounds how long Wait blocks on pipes after the process was killed.
const waitDelay = 2 * time.Second

// Output is the captured result of a single engine invocation.
type Output struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes the engine for one query.
//
// A non-zero exit status is not an error: it is reported through Output.ExitCode
// so the caller decides how to classify it. Errors are reserved for invocations
// that could not produce a trustworthy Output (timeouts, oversized output,
// start failures, cancellation).
type Runner interface {
	Run(ctx context.Context, query string) (*Output, error)
}

// Config configures an ExecRunner
type Config struct {
	Path           string
	WorkDir        string
	MaxOutputBytes int
	Timeout        time.Duration // zero disables the timeout
}

// ExecRunner runs the engine as a child process.
type ExecRunner struct {
	path           string
	workDir        string
	maxOutputBytes int
	timeout        time.Duration
}

// NewExecRunner creates a runner for the engine at cfg.Path.
// A relative path containing a separator is resolved against cfg.WorkDir;
// a bare name is looked up in PATH at execution time.
func NewExecRunner(cfg Config) (*ExecRunner, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("engine: executable path is required")
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("engine: invalid working directory: %w", err)
	}

	path := cfg.Path
	if !filepath.IsAbs(path) && strings.ContainsRune(path, filepath.Separator) {
		path = filepath.Join(workDir, path)
	}

	maxOutput := cfg.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}

	return &ExecRunner{
		path:           path,
		workDir:        workDir,
		maxOutputBytes: maxOutput,
		timeout:        cfg.Timeout,
	}, nil
}

// Path returns the resolved executable path
func (r *ExecRunner) Path() string {
	return r.path
}

// WorkDir returns the directory the engine runs in
func (r *ExecRunner) WorkDir() string {
	return r.workDir
}

// Run executes the engine with query as its sole argument.
func (r *ExecRunner) Run(ctx context.Context, query string) (*Output, error) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Overflowing either stream kills the process instead of letting it block on a full pipe.
	stdout := newBoundedBuffer(r.maxOutputBytes, cancel)
	stderr := newBoundedBuffer(r.maxOutputBytes, cancel)

	cmd := exec.CommandContext(runCtx, r.path, query)
	cmd.Dir = r.workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()

	out := &Output{
		Command:  CommandLine(r.path, query),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, runErr),
		Duration: time.Since(start),
	}

	switch {
	case stdout.Overflowed() || stderr.Overflowed():
		return out, ErrOutputTooLarge
	case runErr == nil:
		return out, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return out, ErrTimeout
	case ctx.Err() != nil:
		return out, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return out, nil
	}

	return out, fmt.Errorf("engine: failed to run %s: %w", r.path, runErr)
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// SanitizeQuery escapes embedded double quotes so the query can be embedded
// in a double-quoted command line.
func SanitizeQuery(query string) string {
	return strings.ReplaceAll(query, `"`, `\"`)
}

// CommandLine renders the invocation the way an operator would type it.
// It is used for diagnostics only; the process itself is spawned without a shell.
func CommandLine(path, query string) string {
	return fmt.Sprintf(`"%s" "%s"`, path, SanitizeQuery(query))
}
