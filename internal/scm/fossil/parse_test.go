package fossil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/scmkit/scmkit/internal/scm"
)

func TestParseChangeLine(t *testing.T) {
	t.Parallel()

	dir := filepath.FromSlash("/ckout")
	tests := []struct {
		name string
		in   string
		want scm.FileChange
		ok   bool
	}{
		{
			name: "added",
			in:   "ADDED      src/new.c",
			want: scm.FileChange{Status: scm.StatusAdded, Path: filepath.Join(dir, "src/new.c")},
			ok:   true,
		},
		{
			name: "deleted",
			in:   "DELETED    src/gone.c",
			want: scm.FileChange{Status: scm.StatusDeleted, Path: filepath.Join(dir, "src/gone.c")},
			ok:   true,
		},
		{
			name: "edited",
			in:   "EDITED     src/main.c",
			want: scm.FileChange{Status: scm.StatusEdited, Path: filepath.Join(dir, "src/main.c")},
			ok:   true,
		},
		{
			name: "extra_is_untracked",
			in:   "EXTRA      notes.txt",
			want: scm.FileChange{Status: scm.StatusUntracked, Path: filepath.Join(dir, "notes.txt")},
			ok:   true,
		},
		{
			name: "renamed_with_arrow",
			in:   "RENAMED    old.c  ->  new.c",
			want: scm.FileChange{
				Status:  scm.StatusRenamed,
				Path:    filepath.Join(dir, "old.c"),
				NewPath: filepath.Join(dir, "new.c"),
			},
			ok: true,
		},
		{
			name: "renamed_new_name_only",
			in:   "RENAMED    new.c",
			want: scm.FileChange{Status: scm.StatusRenamed, Path: filepath.Join(dir, "new.c")},
			ok:   true,
		},
		{name: "unknown_token_skipped", in: "MISSING    lost.c"},
		{name: "conflict_skipped", in: "CONFLICT   both.c"},
		{name: "empty", in: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseChangeLine(dir, tc.in)
			if ok != tc.ok {
				t.Fatalf("parseChangeLine(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("parseChangeLine(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseTimelineLine(t *testing.T) {
	t.Parallel()

	line := "'drh' 0a1b2c3d4e5f '2024-05-01 10:20:30' Fix the parser"
	got, ok := parseTimelineLine(line)
	if !ok {
		t.Fatalf("parseTimelineLine(%q) did not match", line)
	}
	if got.Author != "drh" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Hash != "0a1b2c3d4e5f" {
		t.Errorf("Hash = %q", got.Hash)
	}
	want := time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", got.Date, want)
	}
	if got.Summary != "Fix the parser" {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestParseTimelineLine_Mismatch(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"", "+++ no more data +++", "=== 2024-05-01 ==="} {
		if _, ok := parseTimelineLine(line); ok {
			t.Fatalf("parseTimelineLine(%q) matched unexpectedly", line)
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
			in:   "3b1f2a9c0d 2024-05-01    drh: return 0;",
			want: scm.BlameEntry{Commit: "3b1f2a9c0d", Author: "drh", Date: "2024-05-01"},
			ok:   true,
		},
		{name: "mismatch", in: "blame: no such file"},
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

	out := "3\t1\tsrc/main.c\n2\t0\tREADME\n"
	got := parseNumstat(out)
	want := scm.DiffStats{Inserts: 5, Deletes: 1}
	if got != want {
		t.Fatalf("parseNumstat = %+v, want %+v", got, want)
	}
}

func TestParseInfo(t *testing.T) {
	t.Parallel()

	lines := []string{
		"hash:         0a1b2c3d4e5f6789 2024-05-01 10:20:30 UTC",
		"parent:       ffeeddccbbaa9988 2024-04-30 09:00:00 UTC",
		"tags:         trunk",
		"user:         drh",
		"comment:      Fix the parser. (user: drh)",
	}
	got := parseInfo(lines)
	if got.Hash != "0a1b2c3d4e5f6789" {
		t.Errorf("Hash = %q", got.Hash)
	}
	if got.Author != "drh" {
		t.Errorf("Author = %q", got.Author)
	}
	if got.Date.IsZero() {
		t.Error("Date not parsed")
	}
	if got.Summary != "Fix the parser. (user: drh)" {
		t.Errorf("Summary = %q", got.Summary)
	}
}
