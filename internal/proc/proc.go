// Package proc spawns version-control executables and exposes their output
// either as a single buffered result or as a lazy line sequence.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single subprocess invocation. A hung external tool
// blocks only its own query; the deadline makes sure it does not block it
// forever.
const DefaultTimeout = 30 * time.Second

// Runner invokes one configured executable. The zero value is not usable;
// construct with New.
type Runner struct {
	exe     string
	timeout time.Duration
}

func New(exe string) *Runner {
	return &Runner{exe: exe, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of the runner using the given per-invocation
// deadline. A non-positive value disables the deadline.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	return &Runner{exe: r.exe, timeout: d}
}

func (r *Runner) Executable() string { return r.exe }

// Available reports whether the configured executable resolves on PATH.
func (r *Runner) Available() bool {
	if r == nil || r.exe == "" {
		return false
	}
	_, err := exec.LookPath(r.exe)
	return err == nil
}

// Result is the completed-process handle handed back by Output. A nonzero
// exit code is not a Go error: success or failure of the underlying command
// is decided solely by ExitCode.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (res Result) OK() bool { return res.ExitCode == 0 }

// Message returns the text a caller should surface for a failed command:
// stderr when present, stdout otherwise, else empty.
func (res Result) Message() string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(res.Stdout)
}

func (r *Runner) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Output runs the executable with args in dir and buffers both streams.
// It returns an error only when the process could not be run at all or the
// context expired; command-level failure is reported through Result.
func (r *Runner) Output(ctx context.Context, dir string, args ...string) (Result, error) {
	if r == nil || r.exe == "" {
		return Result{}, fmt.Errorf("executable not configured")
	}
	runCtx, cancel := r.context(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.exe, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("exec", slog.String("exe", r.exe), slog.Any("args", args), slog.String("dir", dir))
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s %s: %w", r.exe, strings.Join(args, " "), ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("%s: %w", r.exe, err)
	}
	return res, nil
}
