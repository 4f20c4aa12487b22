package scm

import "context"

// fakeBackend implements Backend with overridable behavior per operation.
type fakeBackend struct {
	name    string
	staging bool
	root    string

	changesFunc func() ([]FileChange, error)
	branchFunc  func() (string, error)
	diffFunc    func(path string) (string, error)
	blameFunc   func(path string) ([]BlameEntry, error)
	historyFunc func(path string) ([]Commit, error)
	mutateFunc  func(op, path string) error
}

func (f *fakeBackend) Name() string                            { return f.name }
func (f *fakeBackend) Executable() string                      { return f.name }
func (f *fakeBackend) HasStaging() bool                        { return f.staging }
func (f *fakeBackend) Detect(dir string) bool                  { return true }
func (f *fakeBackend) Root(_ context.Context, _ string) string { return f.root }

func (f *fakeBackend) Branch(context.Context, string) (string, error) {
	if f.branchFunc != nil {
		return f.branchFunc()
	}
	return "main", nil
}

func (f *fakeBackend) Staged(context.Context, string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (f *fakeBackend) Changes(context.Context, string) ([]FileChange, error) {
	if f.changesFunc != nil {
		return f.changesFunc()
	}
	return nil, nil
}

func (f *fakeBackend) CommitHistory(_ context.Context, _ string, path string) ([]Commit, error) {
	if f.historyFunc != nil {
		return f.historyFunc(path)
	}
	return nil, nil
}

func (f *fakeBackend) CommitInfo(context.Context, string, string) (*Commit, error) {
	return &Commit{}, nil
}

func (f *fakeBackend) CommitDiff(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeBackend) Diff(context.Context, string) (string, error) {
	if f.diffFunc != nil {
		return f.diffFunc("")
	}
	return "", nil
}

func (f *fakeBackend) FileDiff(_ context.Context, _ string, path string) (string, error) {
	if f.diffFunc != nil {
		return f.diffFunc(path)
	}
	return "", nil
}

func (f *fakeBackend) FileStatus(context.Context, string, string) (ChangeStatus, error) {
	return "", nil
}

func (f *fakeBackend) FileBlame(_ context.Context, _ string, path string) ([]BlameEntry, error) {
	if f.blameFunc != nil {
		return f.blameFunc(path)
	}
	return nil, nil
}

func (f *fakeBackend) FileContent(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (f *fakeBackend) Stats(context.Context, string) (DiffStats, error) {
	return DiffStats{}, nil
}

func (f *fakeBackend) Status(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeBackend) mutate(op, path string) error {
	if f.mutateFunc != nil {
		return f.mutateFunc(op, path)
	}
	return nil
}

func (f *fakeBackend) Pull(context.Context, string) error { return f.mutate("pull", "") }
func (f *fakeBackend) RevertFile(_ context.Context, _ string, path string) error {
	return f.mutate("revert", path)
}
func (f *fakeBackend) AddPath(_ context.Context, _ string, path string) error {
	return f.mutate("add", path)
}
func (f *fakeBackend) RemovePath(_ context.Context, _ string, path string) error {
	return f.mutate("rm", path)
}
func (f *fakeBackend) MovePath(_ context.Context, _ string, from, _ string) error {
	return f.mutate("mv", from)
}
func (f *fakeBackend) StageFile(_ context.Context, _ string, path string) error {
	return f.mutate("stage", path)
}
func (f *fakeBackend) UnstageFile(_ context.Context, _ string, path string) error {
	return f.mutate("unstage", path)
}
