// Package execx abstracts external process execution so the ffmpeg and
// whisper invocations can be faked in tests.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is one process execution response.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// Log captures one external command invocation for the execution log.
type Log struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stderr   string   `json:"stderr"`
}

// Runner executes one command and captures its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// OSRunner executes commands via os/exec. Cancelling the context kills
// the child process.
type OSRunner struct{}

// NewRunner returns the production runner.
func NewRunner() *OSRunner {
	return &OSRunner{}
}

// Run executes one command and captures stdout, stderr, and exit code.
func (r *OSRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// NewLog builds a Log entry from an executed command and its result.
func NewLog(name string, args []string, result Result) Log {
	return Log{
		Command:  name,
		Args:     append([]string(nil), args...),
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}
