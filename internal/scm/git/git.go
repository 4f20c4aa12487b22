// Package git implements the full-capability version-control backend on top
// of the git command line. It supports staging and nested-repository
// (submodule) aggregation.
package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/scmkit/scmkit/internal/proc"
	"github.com/scmkit/scmkit/internal/scm"
)

// Cancellation-check cadences for line-consumption loops.
const (
	statusCheckEvery = 100
	blameCheckEvery  = 100
	infoCheckEvery   = 10
)

type Backend struct {
	runner *proc.Runner
}

func New() *Backend {
	return &Backend{runner: proc.New("git")}
}

func (b *Backend) Name() string       { return "Git" }
func (b *Backend) Executable() string { return b.runner.Executable() }
func (b *Backend) HasStaging() bool   { return true }

// Detect claims dir when a .git marker is present, the marker opens as a
// real repository, and the git executable resolves on PATH.
func (b *Backend) Detect(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return false
	}
	if !b.runner.Available() {
		return false
	}
	_, err := gogit.PlainOpen(dir)
	return err == nil
}

// Root resolves dir to the repository toplevel, falling back to dir itself
// when the query fails. Never cached: nested repositories make the answer
// depend on the exact query path.
func (b *Backend) Root(ctx context.Context, dir string) string {
	res, err := b.runner.Output(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || !res.OK() {
		return dir
	}
	root := strings.TrimSpace(res.Stdout)
	if root == "" {
		return dir
	}
	return filepath.FromSlash(root)
}

// ControlDir points at the real .git directory, following gitdir
// indirection for worktrees and submodules via go-git's storage layer.
func (b *Backend) ControlDir(root string) string {
	repo, err := gogit.PlainOpen(root)
	if err == nil {
		if st, ok := repo.Storer.(*filesystem.Storage); ok {
			return st.Filesystem().Root()
		}
	}
	return filepath.Join(root, ".git")
}

// mutate runs a state-changing command. Success is decided solely by exit
// code; the returned error carries the tool's stderr (else stdout) message.
func (b *Backend) mutate(ctx context.Context, dir string, args ...string) error {
	res, err := b.runner.Output(ctx, dir, args...)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("git %s: %s", args[0], res.Message())
	}
	return nil
}

func (b *Backend) Branch(ctx context.Context, dir string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("git rev-parse: %s", res.Message())
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Staged returns the set of paths with staged content, keyed by absolute
// path.
func (b *Backend) Staged(ctx context.Context, dir string) (map[string]bool, error) {
	res, err := b.runner.Output(ctx, dir, "diff", "--name-only", "--cached")
	if err != nil {
		return nil, err
	}
	staged := map[string]bool{}
	if !res.OK() {
		return staged, nil
	}
	for line := range strings.SplitSeq(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		staged[filepath.Join(dir, filepath.FromSlash(line))] = true
	}
	return staged, nil
}

// Changes lists the working-tree change-set for the repository at dir,
// aggregating nested submodule repositories on top of the toplevel result.
func (b *Backend) Changes(ctx context.Context, dir string) ([]scm.FileChange, error) {
	changes, err := b.topLevelChanges(ctx, dir)
	if err != nil {
		return nil, err
	}
	staged, err := b.Staged(ctx, dir)
	if err == nil {
		for i := range changes {
			changes[i].Staged = staged[changes[i].Path]
		}
	}
	nested, err := b.submoduleChanges(ctx, dir)
	if err != nil {
		// Nested repositories are additive; the toplevel result stands on
		// its own when submodule enumeration fails.
		return changes, nil
	}
	return mergeChanges(changes, nested), nil
}

// topLevelChanges consumes `status --short` line by line, preserving the
// tool's own output order.
func (b *Backend) topLevelChanges(ctx context.Context, dir string) ([]scm.FileChange, error) {
	seq, err := b.runner.Lines(ctx, dir, "status", "--short")
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
		change, ok := parseStatusLine(dir, line)
		if !ok || seen[change.Path] {
			continue
		}
		seen[change.Path] = true
		changes = append(changes, change)
	}
	return changes, nil
}

func mergeChanges(top, nested []scm.FileChange) []scm.FileChange {
	if len(nested) == 0 {
		return top
	}
	seen := make(map[string]bool, len(top))
	for _, c := range top {
		seen[c.Path] = true
	}
	for _, c := range nested {
		if seen[c.Path] {
			continue
		}
		seen[c.Path] = true
		top = append(top, c)
	}
	return top
}

func (b *Backend) CommitHistory(ctx context.Context, dir, path string) ([]scm.Commit, error) {
	args := []string{
		"log", "--oneline", "--no-decorate",
		"--pretty=format:'%an' %H %ct %s",
	}
	if path != "" {
		args = append(args, "--", path)
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
		commit, ok := parseLogLine(line)
		if !ok {
			continue
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

func (b *Backend) CommitInfo(ctx context.Context, dir, id string) (*scm.Commit, error) {
	seq, err := b.runner.Lines(ctx, dir, "show", "--no-patch", id)
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
		return nil, fmt.Errorf("git show: %s", seq.Message())
	}
	return parseCommitInfo(lines), nil
}

func (b *Backend) CommitDiff(ctx context.Context, dir, id string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "show", "-U", id)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("git show: %s", res.Message())
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

// FileDiffAt diffs the working copy of path against its content at rev.
func (b *Backend) FileDiffAt(ctx context.Context, dir, path, rev string) (string, error) {
	res, err := b.runner.Output(ctx, dir, "diff", rev, "--", path)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("git diff: %s", res.Message())
	}
	return res.Stdout, nil
}

func (b *Backend) FileStatus(ctx context.Context, dir, path string) (scm.ChangeStatus, error) {
	res, err := b.runner.Output(ctx, dir, "status", "-s", path)
	if err != nil {
		return "", err
	}
	for line := range strings.SplitSeq(res.Stdout, "\n") {
		if change, ok := parseStatusLine(dir, line); ok {
			return change.Status, nil
		}
	}
	return "", nil
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
	if rev == "" {
		rev = "HEAD"
	}
	res, err := b.runner.Output(ctx, dir, "show", rev+":"+filepath.ToSlash(path))
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("git show: %s", res.Message())
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
	return b.mutate(ctx, dir, "restore", path)
}

func (b *Backend) AddPath(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "add", path)
}

func (b *Backend) RemovePath(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "rm", "-r", "--cached", path)
}

func (b *Backend) MovePath(ctx context.Context, dir, from, to string) error {
	return b.mutate(ctx, dir, "mv", from, to)
}

func (b *Backend) StageFile(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "add", path)
}

func (b *Backend) UnstageFile(ctx context.Context, dir, path string) error {
	return b.mutate(ctx, dir, "restore", "--staged", path)
}
