package ffmpeg

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// commandContext is replaced in tests.
var commandContext = exec.CommandContext

const stderrTailLines = 20

// ExitError reports a failed ffmpeg invocation with the end of its diagnostics.
type ExitError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

func newExitError(binary string, err error, stderr *bytes.Buffer) *ExitError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ExitError{Binary: binary, ExitCode: code, Stderr: tail(stderr.String(), stderrTailLines), Err: err}
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

func binaryOrDefault(binary string) string {
	if binary = strings.TrimSpace(binary); binary != "" {
		return binary
	}
	return "ffmpeg"
}
