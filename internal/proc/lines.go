package proc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// defaultCheckEvery is how many lines a consumption loop reads between
// cancellation checks. Short outputs never hit it; long outputs (status,
// history, blame) stop within one stride of the caller abandoning them.
const defaultCheckEvery = 100

// LineSeq is a lazy, indexed, forward-only view over a running process's
// stdout. It is not restartable: once Next returns io.EOF the sequence is
// done and the process has been reaped.
type LineSeq struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  bytes.Buffer
	scanner *bufio.Scanner

	every int
	index int

	waitOnce sync.Once
	waitErr  error
	exitCode int
}

// Lines starts the executable with args in dir and returns the sequence of
// its stdout lines. The caller must drain to io.EOF or Close the sequence.
func (r *Runner) Lines(ctx context.Context, dir string, args ...string) (*LineSeq, error) {
	if r == nil || r.exe == "" {
		return nil, fmt.Errorf("executable not configured")
	}
	runCtx, cancel := r.context(ctx)
	cmd := exec.CommandContext(runCtx, r.exe, args...)
	cmd.Dir = dir

	seq := &LineSeq{ctx: runCtx, cancel: cancel, cmd: cmd, every: defaultCheckEvery}
	cmd.Stderr = &seq.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s stdout: %w", r.exe, err)
	}
	seq.stdout = stdout
	seq.scanner = bufio.NewScanner(stdout)
	seq.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		return nil, fmt.Errorf("%s start: %w", r.exe, err)
	}
	return seq, nil
}

// CheckEvery adjusts the cancellation-check cadence. Used by short-block
// consumers (commit info) to react faster than the default stride.
func (s *LineSeq) CheckEvery(n int) {
	if n > 0 {
		s.every = n
	}
}

// Index returns the number of lines already returned by Next.
func (s *LineSeq) Index() int { return s.index }

// Next returns the following stdout line, io.EOF when the process output
// ends, or the context error when the sequence was abandoned.
func (s *LineSeq) Next() (string, error) {
	if s.scanner == nil {
		return "", io.EOF
	}
	if s.index%s.every == 0 {
		if err := s.ctx.Err(); err != nil {
			return "", err
		}
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		s.finish()
		return "", io.EOF
	}
	s.index++
	return s.scanner.Text(), nil
}

// ExitCode is valid once Next has returned io.EOF or Close has been called.
func (s *LineSeq) ExitCode() int { return s.exitCode }

// Message mirrors Result.Message for streamed commands.
func (s *LineSeq) Message() string {
	return strings.TrimSpace(s.stderr.String())
}

// Close terminates the process if still running and reaps it. Safe to call
// after EOF.
func (s *LineSeq) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	s.finish()
	s.scanner = nil
	return s.waitErr
}

func (s *LineSeq) finish() {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				s.exitCode = exitErr.ExitCode()
				return
			}
			s.waitErr = err
			s.exitCode = -1
		}
	})
	if s.cancel != nil {
		s.cancel()
	}
}
