// Package fossil implements the reduced-capability version-control backend
// on top of the fossil command line. Fossil has no staging area and no
// nested-repository support, so the corresponding capabilities are off.
package fossil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scmkit/scmkit/internal/proc"
	"github.com/scmkit/scmkit/internal/scm"
)

const (
	statusCheckEvery = 100
	blameCheckEvery  = 100
	infoCheckEvery   = 10
)

// checkout markers fossil drops in an open checkout root.
var markers = []string{".fslckout", "_FOSSIL_"}

type Backend struct {
	runner *proc.Runner
}

func New() *Backend {
	return &Backend{runner: proc.New("fossil")}
}

func (b *Backend) Name() string       { return "Fossil" }
func (b *Backend) Executable() string { return b.runner.Executable() }
func (b *Backend) HasStaging() bool   { return false }

func (b *Backend) Detect(dir string) bool {
	if !b.runner.Available() {
		return false
	}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// Root reads the checkout root from `status` ("local-root:" line), falling
// back to dir when the query fails.
func (b *Backend) Root(ctx context.Context, dir string) string {
	res, err := b.runner.Output(ctx, dir, "status")
	if err != nil || !res.OK() {
		return dir
	}
	for line := range strings.SplitSeq(res.Stdout, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "local-root:")
		if !ok {
			continue
		}
		root := strings.TrimSuffix(strings.TrimSpace(rest), "/")
		if root != "" {
			return filepath.FromSlash(root)
		}
	}
	return dir
}

// ControlDir is the checkout database file; external commits and updates
// rewrite it.
func (b *Backend) ControlDir(root string) string {
	for _, marker := range markers {
		p := filepath.Join(root, marker)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return root
}

func (b *Backend) mutate(ctx context.Context, dir string, args ...string) error {
	res, err := b.runner.Output(ctx, dir, args...)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("fossil %s: %s", args[0], res.Message())
	}
	return nil
}

// Branch parses `branch` output; the active branch carries a leading '*'.
func (b *Backend) Branch(ctx context.Context, dir string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "branch")
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("fossil branch: %s", res.Message())
	}
	for line := range strings.SplitSeq(res.Stdout, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "*")
		if ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", nil
}

// Staged is gated off by HasStaging.
func (b *Backend) Staged(ctx context.Context, dir string) (map[string]bool, error) {
	return nil, scm.ErrUnsupported
}

func (b *Backend) Changes(ctx context.Context, dir string) ([]scm.FileChange, error) {
	seq, err := b.runner.Lines(ctx, dir, "changes", "--differ")
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	seq.CheckEvery(statusCheckEvery)

	var changes []scm.FileChange
	seen := map[string]bool{}
	for {
		line, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		change, ok := parseChangeLine(dir, line)
		if !ok || seen[change.Path] {
			continue
		}
		seen[change.Path] = true
		changes = append(changes, change)
	}
	return changes, nil
}

func (b *Backend) CommitHistory(ctx context.Context, dir, path string) ([]scm.Commit, error) {
	args := []string{"timeline", "-n", "0", "-F", "'%a' %H '%d' %c"}
	if path != "" {
		args = append(args, "-p", path)
	}
	seq, err := b.runner.Lines(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	seq.CheckEvery(statusCheckEvery)

	var commits []scm.Commit
	for {
		line, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		commit, ok := parseTimelineLine(line)
		if !ok {
			continue
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

func (b *Backend) CommitInfo(ctx context.Context, dir, id string) (*scm.Commit, error) {
	seq, err := b.runner.Lines(ctx, dir, "info", id)
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	seq.CheckEvery(infoCheckEvery)

	var lines []string
	for {
		line, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if seq.ExitCode() != 0 {
		return nil, fmt.Errorf("fossil info: %s", seq.Message())
	}
	return parseInfo(lines), nil
}

func (b *Backend) CommitDiff(ctx context.Context, dir, id string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "diff", "--unified", "-ci", id)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("fossil diff: %s", res.Message())
	}
	return res.Stdout, nil
}

func (b *Backend) Diff(ctx context.Context, dir string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "diff")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (b *Backend) FileDiff(ctx context.Context, dir, path string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "diff", path)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (b *Backend) FileStatus(ctx context.Context, dir, path string) (scm.ChangeStatus, error) {
	res, err := b.runner.Output(ctx, dir, "finfo", "-s", path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return "", nil
	}
	status, ok := statusByToken[strings.ToUpper(fields[0])]
	if !ok {
		return "", nil
	}
	return status, nil
}

func (b *Backend) FileBlame(ctx context.Context, dir, path string) ([]scm.BlameEntry, error) {
	seq, err := b.runner.Lines(ctx, dir, "blame", path)
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	seq.CheckEvery(blameCheckEvery)

	var entries []scm.BlameEntry
	for {
		line, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entry, ok := parseBlameLine(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *Backend) FileContent(ctx context.Context, dir, path, rev string) (string, error) {
	args := []string{"cat", path}
	if rev != "" {
		args = append(args, "-r", rev)
	}
	res, err := b.runner.Output(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("fossil cat: %s", res.Message())
	}
	return res.Stdout, nil
}

func (b *Backend) Stats(ctx context.Context, dir string) (scm.DiffStats, error) {
	res, err := b.runner.Output(ctx, dir, "diff", "--numstat")
	if err != nil {
		return scm.DiffStats{}, err
	}
	return parseNumstat(res.Stdout), nil
}

func (b *Backend) Status(ctx context.Context, dir string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "status")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (b *Backend) Pull(ctx context.Context, dir string) error {
	return b.mutate(ctx, dir, "pull")
}

func (b *Backend) RevertFile(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "revert", path)
}

func (b *Backend) AddPath(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "add", path)
}

func (b *Backend) RemovePath(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "rm", path)
}

func (b *Backend) MovePath(ctx context.Context, dir, from, to string) error {
	return b.mutate(ctx, dir, "mv", from, to)
}

func (b *Backend) StageFile(ctx context.Context, dir, path string) error {
	return scm.ErrUnsupported
}

func (b *Backend) UnstageFile(ctx context.Context, dir, path string) error {
	return scm.ErrUnsupported
}
