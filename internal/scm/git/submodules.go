package git

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/scmkit/scmkit/internal/scm"
)

// submoduleChanges enumerates nested repositories and queries each for its
// own change-set. All sub-queries start before any is awaited; the aggregate
// is delivered only once every one of them has completed.
func (b *Backend) submoduleChanges(ctx context.Context, dir string) ([]scm.FileChange, error) {
	subs, err := b.listSubmodules(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}

	results := make([][]scm.FileChange, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		g.Go(func() error {
			subDir := filepath.Join(dir, filepath.FromSlash(sub))
			changes, err := b.topLevelChanges(gctx, subDir)
			if err != nil {
				return err
			}
			results[i] = changes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []scm.FileChange
	for _, changes := range results {
		all = append(all, changes...)
	}
	return all, nil
}

// listSubmodules parses `submodule foreach --recursive`, whose only stable
// output is one "Entering '<path>'" line per nested repository.
func (b *Backend) listSubmodules(ctx context.Context, dir string) ([]string, error) {
	seq, err := b.runner.Lines(ctx, dir, "submodule", "foreach", "--recursive")
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	seq.CheckEvery(statusCheckEvery)

	var subs []string
	for {
		line, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		path, ok := parseForeachLine(line)
		if !ok {
			continue
		}
		subs = append(subs, path)
	}
	return subs, nil
}

func parseForeachLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Entering '")
	if !ok {
		return "", false
	}
	path, ok := strings.CutSuffix(rest, "'")
	if !ok || path == "" {
		return "", false
	}
	return path, true
}
