package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// redirect swaps *target for a pipe while fn runs and returns what was written.
// The pipe is drained concurrently so large outputs never block fn.
func redirect(t testing.TB, target **os.File, fn func()) string {
	t.Helper()
	readPipe, writePipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	var buf bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, readPipe)
		copied <- err
	}()

	original := *target
	*target = writePipe
	func() {
		defer func() { *target = original }()
		fn()
	}()

	if err := writePipe.Close(); err != nil {
		t.Fatalf("failed to close write pipe: %v", err)
	}
	if err := <-copied; err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	_ = readPipe.Close()
	return buf.String()
}

// captureStdio runs fn and returns what it printed on stdout and stderr.
// Commands print results on stdout and diagnostics on stderr.
func captureStdio(t testing.TB, fn func()) (stdout, stderr string) {
	t.Helper()
	stderr = redirect(t, &os.Stderr, func() {
		stdout = redirect(t, &os.Stdout, fn)
	})
	return stdout, stderr
}

// captureStdout runs fn and returns its stdout.
func captureStdout(t testing.TB, fn func()) string {
	t.Helper()
	stdout, _ := captureStdio(t, fn)
	return stdout
}
