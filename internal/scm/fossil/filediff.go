package fossil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

const fileDiffContextLines = 3

// FileDiffAt renders a unified diff of the working copy of path against its
// content at rev. Fossil's own diff cannot compare an arbitrary revision to
// the working file, so the historical content comes from `cat -r` and the
// diff is synthesized locally.
func (b *Backend) FileDiffAt(ctx context.Context, dir, path, rev string) (string, error) {
	old, err := b.FileContent(ctx, dir, path, rev)
	if err != nil {
		return "", err
	}
	current, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("read working copy: %w", err)
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(string(current)),
		FromFile: fmt.Sprintf("%s@%s", path, rev),
		ToFile:   path,
		Context:  fileDiffContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}
	return text, nil
}
