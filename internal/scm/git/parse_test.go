package git

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/scmkit/scmkit/internal/scm"
)

func TestParseStatusLine(t *testing.T) {
	t.Parallel()

	dir := filepath.FromSlash("/repo")
	tests := []struct {
		name string
		in   string
		want scm.FileChange
		ok   bool
	}{
		{
			name: "staged_added",
			in:   "A  new.go",
			want: scm.FileChange{Status: scm.StatusAdded, Path: filepath.Join(dir, "new.go")},
			ok:   true,
		},
		{
			name: "worktree_deleted",
			in:   " D gone.go",
			want: scm.FileChange{Status: scm.StatusDeleted, Path: filepath.Join(dir, "gone.go")},
			ok:   true,
		},
		{
			name: "worktree_modified",
			in:   " M main.go",
			want: scm.FileChange{Status: scm.StatusEdited, Path: filepath.Join(dir, "main.go")},
			ok:   true,
		},
		{
			name: "untracked",
			in:   "?? scratch.txt",
			want: scm.FileChange{Status: scm.StatusUntracked, Path: filepath.Join(dir, "scratch.txt")},
			ok:   true,
		},
		{
			name: "renamed_carries_both_paths",
			in:   "R  old.go -> new.go",
			want: scm.FileChange{
				Status:  scm.StatusRenamed,
				Path:    filepath.Join(dir, "old.go"),
				NewPath: filepath.Join(dir, "new.go"),
			},
			ok: true,
		},
		{
			name: "quoted_path",
			in:   `?? "with space.txt"`,
			want: scm.FileChange{Status: scm.StatusUntracked, Path: filepath.Join(dir, "with space.txt")},
			ok:   true,
		},
		{name: "unknown_token_skipped", in: "C  copied.go"},
		{name: "unmerged_skipped", in: "UU conflicted.go"},
		{name: "empty", in: ""},
		{name: "garbage", in: "not a status line"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseStatusLine(dir, tc.in)
			if ok != tc.ok {
				t.Fatalf("parseStatusLine(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("parseStatusLine(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseLogLine(t *testing.T) {
	t.Parallel()

	line := "'Jane Doe' 0a1b2c3d4e5f0a1b2c3d4e5f0a1b2c3d4e5f0a1b 1714550430 Fix the parser"
	got, ok := parseLogLine(line)
	if !ok {
		t.Fatalf("parseLogLine(%q) did not match", line)
	}
	if got.Author != "Jane Doe" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Hash != "0a1b2c3d4e5f0a1b2c3d4e5f0a1b2c3d4e5f0a1b" {
		t.Errorf("Hash = %q", got.Hash)
	}
	if !got.Date.Equal(time.Unix(1714550430, 0)) {
		t.Errorf("Date = %v", got.Date)
	}
	if got.Summary != "Fix the parser" {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestParseLogLine_Mismatch(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"", "warning: something", "'unterminated abc"} {
		if _, ok := parseLogLine(line); ok {
			t.Fatalf("parseLogLine(%q) matched unexpectedly", line)
		}
	}
}

func TestParseBlameLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want scm.BlameEntry
		ok   bool
	}{
		{
			name: "plain",
			in:   "3b1f2a9c (Jane Doe 2024-05-01 10:20:30 +0200 12) return nil",
			want: scm.BlameEntry{Commit: "3b1f2a9c", Author: "Jane Doe", Date: "2024-05-01 10:20:30 +0200"},
			ok:   true,
		},
		{
			name: "boundary_caret_stripped",
			in:   "^9e8d7c6 (Old Author 2019-01-01 00:00:00 +0000 1) package main",
			want: scm.BlameEntry{Commit: "9e8d7c6", Author: "Old Author", Date: "2019-01-01 00:00:00 +0000"},
			ok:   true,
		},
		{name: "mismatch", in: "fatal: no such path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseBlameLine(tc.in)
			if ok != tc.ok {
				t.Fatalf("parseBlameLine(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("parseBlameLine(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseNumstat(t *testing.T) {
	t.Parallel()

	out := "10\t2\tmain.go\n-\t-\timage.png\n0\t5\told.go\nnot numstat\n"
	got := parseNumstat(out)
	want := scm.DiffStats{Inserts: 10, Deletes: 7}
	if got != want {
		t.Fatalf("parseNumstat = %+v, want %+v", got, want)
	}
}

func TestParseCommitInfo(t *testing.T) {
	t.Parallel()

	lines := []string{
		"commit 0a1b2c3d4e5f",
		"Merge: 1111111 2222222",
		"Author: Jane Doe <jane@example.com>",
		"Date:   Wed May 1 10:20:30 2024 +0200",
		"",
		"    Fix the parser",
		"",
		"    The old grammar missed renames.",
	}
	got := parseCommitInfo(lines)
	if got.Hash != "0a1b2c3d4e5f" {
		t.Errorf("Hash = %q", got.Hash)
	}
	if got.Author != "Jane Doe <jane@example.com>" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Date.IsZero() {
		t.Error("Date not parsed")
	}
	if got.Summary != "Fix the parser" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.Message != "Fix the parser\n\nThe old grammar missed renames." {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestParseForeachLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "Entering 'libs/vendor'", want: "libs/vendor", ok: true},
		{in: "Entering 'a/b/c'", want: "a/b/c", ok: true},
		{in: "some script output", ok: false},
		{in: "Entering ''", ok: false},
	}
	for _, tc := range tests {
		got, ok := parseForeachLine(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseForeachLine(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
