// Package scm defines the shared data model for version-control backends,
// the capability interface they implement, and the repository session that
// layers caching and invalidation over them.
package scm

import (
	"errors"
	"time"
)

// ErrUnsupported is returned by optional operations (staging) on backends
// whose capability flag is off.
var ErrUnsupported = errors.New("operation not supported by this backend")

// ErrNoBackend is returned when no registered backend claims a directory.
// This is not a failure mode: version-control features are simply inactive
// for that project.
var ErrNoBackend = errors.New("no version control backend detected")

// ChangeStatus is the canonical change vocabulary every backend normalizes
// its own raw tokens into.
type ChangeStatus string

const (
	StatusAdded     ChangeStatus = "added"
	StatusDeleted   ChangeStatus = "deleted"
	StatusEdited    ChangeStatus = "edited"
	StatusRenamed   ChangeStatus = "renamed"
	StatusUntracked ChangeStatus = "untracked"
)

// FileChange describes one path's state in a working tree. Entries within a
// change-set are unique by Path.
type FileChange struct {
	Status ChangeStatus
	Path   string
	// NewPath is set iff Status == StatusRenamed.
	NewPath string
	// Staged is meaningful only when the producing backend has staging.
	Staged bool
}

// Commit is one history entry, in the order the tool emitted it
// (newest first). Message is the full multi-line body when known.
type Commit struct {
	Hash    string
	Author  string
	Date    time.Time
	Summary string
	Message string
}

// BlameEntry annotates one source line; a blame result holds one entry per
// line, in file order.
type BlameEntry struct {
	Commit string
	Author string
	Date   string
}

// DiffStats aggregates insertion/deletion counts across a diff.
type DiffStats struct {
	Inserts int
	Deletes int
}
