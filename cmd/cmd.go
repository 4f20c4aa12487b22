// Package cmd is the command-line front end. It detects a backend for the
// target directory, opens a repository session and maps subcommands onto
// the canonical operation set.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/scmkit/scmkit/internal/buildinfo"
	"github.com/scmkit/scmkit/internal/scm"
	"github.com/scmkit/scmkit/internal/scm/fossil"
	"github.com/scmkit/scmkit/internal/scm/git"
)

func Run() error {
	return run(os.Args[1:], os.Stdout)
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scmkit", flag.ContinueOnError)
	dir := fs.String("C", ".", "run as if started in this directory")
	timeout := fs.Duration("timeout", 30*time.Second, "overall command deadline")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	noColor := fs.Bool("nocolor", false, "disable diff highlighting")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(out, buildinfo.VersionWithTags())
		return nil
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("no command given (try: status, changes, branch, log, diff, blame, stats)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backends := []scm.Backend{git.New(), fossil.New()}
	session, err := scm.NewSession(ctx, *dir, backends)
	if errors.Is(err, scm.ErrNoBackend) {
		fmt.Fprintln(out, "no version control detected")
		return nil
	}
	if err != nil {
		return err
	}
	defer session.Close()

	return dispatch(ctx, session, rest[0], rest[1:], out, !*noColor)
}

func dispatch(ctx context.Context, s *scm.Session, command string, args []string, out io.Writer, color bool) error {
	switch command {
	case "detect":
		fmt.Fprintf(out, "%s (%s) at %s\n", s.Backend().Name(), s.Backend().Executable(), s.Root())
		return nil
	case "branch":
		branch, err := s.Branch(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, branch)
		return nil
	case "status":
		status, err := s.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, status)
		return nil
	case "changes":
		changes, err := s.Changes(ctx)
		if err != nil {
			return err
		}
		for _, c := range changes {
			printChange(out, c)
		}
		return nil
	case "staged":
		staged, err := s.Staged(ctx)
		if err != nil {
			return err
		}
		paths := slices.Sorted(maps.Keys(staged))
		for _, path := range paths {
			fmt.Fprintln(out, path)
		}
		return nil
	case "log":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		commits, err := s.CommitHistory(ctx, path)
		if err != nil {
			return err
		}
		for _, c := range commits {
			fmt.Fprintf(out, "%s  %s  %s  %s\n",
				shortHash(c.Hash), c.Date.Format("2006-01-02 15:04"), c.Author, c.Summary)
		}
		return nil
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("show: commit id required")
		}
		commit, err := s.CommitInfo(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "commit %s\nAuthor: %s\nDate:   %s\n\n%s\n",
			commit.Hash, commit.Author, commit.Date.Format(time.RFC1123Z), commit.Message)
		return nil
	case "showdiff":
		if len(args) < 1 {
			return fmt.Errorf("showdiff: commit id required")
		}
		text, err := s.CommitDiff(ctx, args[0])
		if err != nil {
			return err
		}
		printDiff(out, text, color)
		return nil
	case "diff":
		text, err := treeOrFileDiff(ctx, s, args)
		if err != nil {
			return err
		}
		printDiff(out, text, color)
		return nil
	case "annotate":
		text, err := treeOrFileDiff(ctx, s, args)
		if err != nil {
			return err
		}
		printLineMap(out, scm.ClassifyDiff(text))
		return nil
	case "blame":
		if len(args) < 1 {
			return fmt.Errorf("blame: path required")
		}
		entries, err := s.FileBlame(ctx, args[0])
		if err != nil {
			return err
		}
		for i, e := range entries {
			fmt.Fprintf(out, "%4d  %s  %s  %s\n", i+1, shortHash(e.Commit), e.Date, e.Author)
		}
		return nil
	case "stats":
		stats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "+%d -%d\n", stats.Inserts, stats.Deletes)
		return nil
	case "filestatus":
		if len(args) < 1 {
			return fmt.Errorf("filestatus: path required")
		}
		status, err := s.FileStatus(ctx, args[0])
		if err != nil {
			return err
		}
		if status == "" {
			fmt.Fprintln(out, "unchanged")
			return nil
		}
		fmt.Fprintln(out, string(status))
		return nil
	case "cat":
		if len(args) < 1 {
			return fmt.Errorf("cat: path required")
		}
		rev := ""
		if len(args) > 1 {
			rev = args[1]
		}
		content, err := s.FileContent(ctx, args[0], rev)
		if err != nil {
			return err
		}
		fmt.Fprint(out, content)
		return nil
	case "pull":
		return s.Pull(ctx)
	case "revert":
		return pathCommand(ctx, "revert", args, s.RevertFile)
	case "add":
		return pathCommand(ctx, "add", args, s.AddPath)
	case "rm":
		return pathCommand(ctx, "rm", args, s.RemovePath)
	case "stage":
		return pathCommand(ctx, "stage", args, s.StageFile)
	case "unstage":
		return pathCommand(ctx, "unstage", args, s.UnstageFile)
	case "mv":
		if len(args) < 2 {
			return fmt.Errorf("mv: source and destination required")
		}
		return s.MovePath(ctx, args[0], args[1])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func treeOrFileDiff(ctx context.Context, s *scm.Session, args []string) (string, error) {
	switch len(args) {
	case 0:
		return s.Diff(ctx)
	case 1:
		return s.FileDiff(ctx, args[0])
	default:
		return s.FileDiffAt(ctx, args[0], args[1])
	}
}

func pathCommand(ctx context.Context, name string, args []string, fn func(context.Context, string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("%s: path required", name)
	}
	return fn(ctx, args[0])
}

func printChange(out io.Writer, c scm.FileChange) {
	marker := " "
	if c.Staged {
		marker = "*"
	}
	if c.Status == scm.StatusRenamed {
		fmt.Fprintf(out, "%s %-9s  %s -> %s\n", marker, c.Status, c.Path, c.NewPath)
		return
	}
	fmt.Fprintf(out, "%s %-9s  %s\n", marker, c.Status, c.Path)
}

func printLineMap(out io.Writer, m scm.LineMap) {
	lines := make([]int, 0, len(m))
	for line := range m {
		lines = append(lines, line)
	}
	slices.Sort(lines)
	for _, line := range lines {
		fmt.Fprintf(out, "%d: %s\n", line, m[line])
	}
}

func shortHash(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}

func printDiff(out io.Writer, text string, color bool) {
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(out, "no changes")
		return
	}
	if color {
		if err := highlightDiff(out, text); err == nil {
			return
		}
	}
	fmt.Fprint(out, text)
}
