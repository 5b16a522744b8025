// Package execute runs the bundled tools as child processes.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
)

// ErrEmptyCommand is returned when Run receives no argv.
var ErrEmptyCommand = errors.New("command is empty")

// Outcome is what a finished child process left behind.
type Outcome struct {
	ExitCode int
	Output   string
}

// Runner starts argv[0] with argv[1:] and waits for it to exit.
//
// A non-zero exit is reported through Outcome, not as an error. Errors mean the
// process could not be started or was interrupted.
type Runner interface {
	Run(ctx context.Context, argv []string) (Outcome, error)
}

// ProcessRunner runs commands with os/exec, stderr merged into stdout.
type ProcessRunner struct {
	// Env overrides the child environment when non-nil.
	Env []string
}

// Run implements Runner.
func (r ProcessRunner) Run(ctx context.Context, argv []string) (Outcome, error) {
	if len(argv) == 0 {
		return Outcome{}, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if r.Env != nil {
		cmd.Env = r.Env
	}
	// Grandchildren holding the output pipe must not stall Wait after cancellation.
	cmd.WaitDelay = consts.ProcessWaitDelay

	var buf bytes.Buffer
	lw := &lineLogger{}
	out := io.MultiWriter(&buf, lw)
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Pl.Info().Str("command", cmd.String()).Msg("Executing download command")
	err := cmd.Run()
	lw.flush()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{ExitCode: -1, Output: buf.String()}, fmt.Errorf("command %s interrupted: %w", argv[0], ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Outcome{ExitCode: exitCode(exitErr), Output: buf.String()}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	return Outcome{ExitCode: 0, Output: buf.String()}, nil
}

// exitCode returns the exit status of a finished process, or 128+signal when a signal
// killed it.
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// lineLogger logs complete output lines at debug level as they arrive.
type lineLogger struct {
	mu      sync.Mutex
	pending []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			break
		}
		logger.Pl.Debug().Str("line", string(bytes.TrimRight(l.pending[:i], "\r"))).Msg("tool output")
		l.pending = l.pending[i+1:]
	}
	return len(p), nil
}

func (l *lineLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) > 0 {
		logger.Pl.Debug().Str("line", string(l.pending)).Msg("tool output")
		l.pending = nil
	}
}
