package scm

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/scmkit/scmkit/internal/cache"
	"github.com/scmkit/scmkit/internal/watch"
)

// Cache expiry budgets, in read counts. Per-file blame and diffs are cheap
// to hold but go stale fast, so they self-evict instead of waiting for an
// explicit invalidation.
const (
	blameExpiry    = 10
	fileDiffExpiry = 1
)

// ControlDirer is implemented by backends that can point at their
// repository's control-metadata directory (e.g. .git). The session watches
// it to invalidate repository-scoped cache entries on external mutation.
type ControlDirer interface {
	ControlDir(root string) string
}

// RevDiffer is implemented by backends that can diff the working copy of a
// file against its content at an arbitrary revision.
type RevDiffer interface {
	FileDiffAt(ctx context.Context, dir, path, rev string) (string, error)
}

// Session binds one detected repository root to its backend, result cache
// and change-notification subscription. It is the owner of all
// session-scoped state; one instance lives for as long as the editor keeps
// the project open.
type Session struct {
	backend Backend
	root    string
	cache   *cache.Cache
	watcher *watch.Watcher
}

// NewSession detects a backend for dir and resolves its repository root.
// ErrNoBackend means version-control features stay inactive for dir.
func NewSession(ctx context.Context, dir string, backends []Backend) (*Session, error) {
	backend, err := Detect(dir, backends)
	if err != nil {
		return nil, err
	}
	root := backend.Root(ctx, dir)
	return &Session{backend: backend, root: root, cache: cache.New()}, nil
}

func (s *Session) Backend() Backend { return s.backend }
func (s *Session) Root() string     { return s.root }

// EnableWatch subscribes to the repository's control-metadata path so that
// external mutations (commits, pulls from another terminal) clear the
// repository-scoped cache entries.
func (s *Session) EnableWatch() error {
	if s.watcher != nil {
		return nil
	}
	path := s.root
	if cd, ok := s.backend.(ControlDirer); ok {
		if p := cd.ControlDir(s.root); p != "" {
			path = p
		}
	}
	w, err := watch.New(func() {
		slog.Debug("control path changed, dropping cached results", slog.String("root", s.root))
		s.cache.InvalidateAll()
	}, path)
	if err != nil {
		return fmt.Errorf("watch control path: %w", err)
	}
	s.watcher = w
	return nil
}

func (s *Session) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// abs scopes a cache key under the repository root so path-prefix
// invalidation works uniformly.
func (s *Session) abs(path string) string {
	if path == "" {
		return s.root
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *Session) Branch(ctx context.Context) (string, error) {
	v, err := s.cache.Fetch("branch", s.root, cache.NoExpiry, func() (any, error) {
		return s.backend.Branch(ctx, s.root)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) Changes(ctx context.Context) ([]FileChange, error) {
	v, err := s.cache.Fetch("changes", s.root, cache.NoExpiry, func() (any, error) {
		return s.backend.Changes(ctx, s.root)
	})
	if err != nil {
		return nil, err
	}
	return v.([]FileChange), nil
}

func (s *Session) Staged(ctx context.Context) (map[string]bool, error) {
	if !s.backend.HasStaging() {
		return nil, ErrUnsupported
	}
	v, err := s.cache.Fetch("staged", s.root, cache.NoExpiry, func() (any, error) {
		return s.backend.Staged(ctx, s.root)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]bool), nil
}

func (s *Session) CommitHistory(ctx context.Context, path string) ([]Commit, error) {
	v, err := s.cache.Fetch("history", s.abs(path), cache.NoExpiry, func() (any, error) {
		return s.backend.CommitHistory(ctx, s.root, path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Commit), nil
}

func (s *Session) FileBlame(ctx context.Context, path string) ([]BlameEntry, error) {
	v, err := s.cache.Fetch("blame", s.abs(path), blameExpiry, func() (any, error) {
		return s.backend.FileBlame(ctx, s.root, path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]BlameEntry), nil
}

func (s *Session) FileDiff(ctx context.Context, path string) (string, error) {
	v, err := s.cache.Fetch("filediff", s.abs(path), fileDiffExpiry, func() (any, error) {
		return s.backend.FileDiff(ctx, s.root, path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) FileDiffAt(ctx context.Context, path, rev string) (string, error) {
	rd, ok := s.backend.(RevDiffer)
	if !ok {
		return "", ErrUnsupported
	}
	v, err := s.cache.Fetch("filediffat", s.abs(path)+"@"+rev, fileDiffExpiry, func() (any, error) {
		return rd.FileDiffAt(ctx, s.root, path, rev)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) Stats(ctx context.Context) (DiffStats, error) {
	v, err := s.cache.Fetch("stats", s.root, cache.NoExpiry, func() (any, error) {
		return s.backend.Stats(ctx, s.root)
	})
	if err != nil {
		return DiffStats{}, err
	}
	return v.(DiffStats), nil
}

// Uncached pass-throughs. Diff text for whole-tree or commit queries is
// requested on demand by views and not worth holding.

func (s *Session) Status(ctx context.Context) (string, error) {
	return s.backend.Status(ctx, s.root)
}

func (s *Session) Diff(ctx context.Context) (string, error) {
	return s.backend.Diff(ctx, s.root)
}

func (s *Session) CommitInfo(ctx context.Context, id string) (*Commit, error) {
	return s.backend.CommitInfo(ctx, s.root, id)
}

func (s *Session) CommitDiff(ctx context.Context, id string) (string, error) {
	return s.backend.CommitDiff(ctx, s.root, id)
}

func (s *Session) FileStatus(ctx context.Context, path string) (ChangeStatus, error) {
	return s.backend.FileStatus(ctx, s.root, path)
}

func (s *Session) FileContent(ctx context.Context, path, rev string) (string, error) {
	return s.backend.FileContent(ctx, s.root, path, rev)
}

// invalidatePath drops entries scoped to the mutated file plus the
// repository-level aggregates derived from it.
func (s *Session) invalidatePath(path string) {
	s.cache.InvalidateScope(s.abs(path))
	for _, op := range []string{"changes", "staged", "stats", "branch"} {
		s.cache.Invalidate(op, s.root)
	}
	s.cache.Invalidate("history", s.root)
}

func (s *Session) Pull(ctx context.Context) error {
	err := s.backend.Pull(ctx, s.root)
	s.cache.InvalidateAll()
	return err
}

func (s *Session) RevertFile(ctx context.Context, path string) error {
	err := s.backend.RevertFile(ctx, s.root, path)
	s.invalidatePath(path)
	return err
}

func (s *Session) AddPath(ctx context.Context, path string) error {
	err := s.backend.AddPath(ctx, s.root, path)
	s.invalidatePath(path)
	return err
}

func (s *Session) RemovePath(ctx context.Context, path string) error {
	err := s.backend.RemovePath(ctx, s.root, path)
	s.invalidatePath(path)
	return err
}

func (s *Session) MovePath(ctx context.Context, from, to string) error {
	err := s.backend.MovePath(ctx, s.root, from, to)
	s.invalidatePath(from)
	s.invalidatePath(to)
	return err
}

func (s *Session) StageFile(ctx context.Context, path string) error {
	if !s.backend.HasStaging() {
		return ErrUnsupported
	}
	err := s.backend.StageFile(ctx, s.root, path)
	s.invalidatePath(path)
	return err
}

func (s *Session) UnstageFile(ctx context.Context, path string) error {
	if !s.backend.HasStaging() {
		return ErrUnsupported
	}
	err := s.backend.UnstageFile(ctx, s.root, path)
	s.invalidatePath(path)
	return err
}
