package scm

import "context"

// Backend is the canonical operation set shared by every version-control
// variant. Implementations translate these operations into one tool's
// command-line grammar and normalize its output into the shared data model.
//
// Read operations degrade to empty or partial results on malformed tool
// output; mutating operations report explicit success or failure carrying
// the tool's own message.
type Backend interface {
	// Name is the display name of the underlying tool.
	Name() string
	// Executable is the binary this backend shells out to.
	Executable() string
	// HasStaging reports whether StageFile/UnstageFile are available.
	HasStaging() bool
	// Detect reports whether dir belongs to a repository of this kind and
	// the tool's executable resolves on PATH.
	Detect(dir string) bool
	// Root resolves dir to the repository root, falling back to dir when
	// resolution fails.
	Root(ctx context.Context, dir string) string

	Branch(ctx context.Context, dir string) (string, error)
	Staged(ctx context.Context, dir string) (map[string]bool, error)
	Changes(ctx context.Context, dir string) ([]FileChange, error)
	CommitHistory(ctx context.Context, dir, path string) ([]Commit, error)
	CommitInfo(ctx context.Context, dir, id string) (*Commit, error)
	CommitDiff(ctx context.Context, dir, id string) (string, error)
	Diff(ctx context.Context, dir string) (string, error)
	FileDiff(ctx context.Context, dir, path string) (string, error)
	FileStatus(ctx context.Context, dir, path string) (ChangeStatus, error)
	FileBlame(ctx context.Context, dir, path string) ([]BlameEntry, error)
	FileContent(ctx context.Context, dir, path, rev string) (string, error)
	Stats(ctx context.Context, dir string) (DiffStats, error)
	Status(ctx context.Context, dir string) (string, error)

	Pull(ctx context.Context, dir string) error
	RevertFile(ctx context.Context, dir, path string) error
	AddPath(ctx context.Context, dir, path string) error
	RemovePath(ctx context.Context, dir, path string) error
	MovePath(ctx context.Context, dir, from, to string) error
	StageFile(ctx context.Context, dir, path string) error
	UnstageFile(ctx context.Context, dir, path string) error
}

// Detect returns the first backend claiming dir. Registration order decides
// precedence when several markers coexist.
func Detect(dir string, backends []Backend) (Backend, error) {
	for _, b := range backends {
		if b.Detect(dir) {
			return b, nil
		}
	}
	return nil, ErrNoBackend
}
