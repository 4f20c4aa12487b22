package git

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scmkit/scmkit/internal/scm"
)

// statusByToken maps `status --short` codes onto the canonical vocabulary.
// Unlisted codes (copies, unmerged states) fall outside the model and their
// lines are skipped.
var statusByToken = map[byte]scm.ChangeStatus{
	'A': scm.StatusAdded,
	'D': scm.StatusDeleted,
	'M': scm.StatusEdited,
	'R': scm.StatusRenamed,
}

// parseStatusLine normalizes one `status --short` line. The two-column XY
// code collapses to whichever side is set; `??` marks untracked files.
// Rename lines carry both sides: `R  old -> new`.
func parseStatusLine(dir, line string) (scm.FileChange, bool) {
	if len(line) < 4 || line[2] != ' ' {
		return scm.FileChange{}, false
	}
	code := line[:2]
	rest := strings.TrimSpace(line[3:])
	if rest == "" {
		return scm.FileChange{}, false
	}
	if code == "??" {
		return scm.FileChange{
			Status: scm.StatusUntracked,
			Path:   absPath(dir, rest),
		}, true
	}
	token := code[0]
	if token == ' ' {
		token = code[1]
	}
	status, ok := statusByToken[token]
	if !ok {
		return scm.FileChange{}, false
	}
	change := scm.FileChange{Status: status}
	if status == scm.StatusRenamed {
		from, to, found := strings.Cut(rest, " -> ")
		if !found {
			return scm.FileChange{}, false
		}
		change.Path = absPath(dir, strings.TrimSpace(from))
		change.NewPath = absPath(dir, strings.TrimSpace(to))
		return change, true
	}
	change.Path = absPath(dir, rest)
	return change, true
}

func absPath(dir, p string) string {
	p = unquotePath(p)
	return filepath.Join(dir, filepath.FromSlash(p))
}

// unquotePath undoes git's C-style quoting of paths with special characters.
func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if unquoted, err := strconv.Unquote(p); err == nil {
		return unquoted
	}
	return p
}

// logLineRe matches the custom pretty format `'%an' %H %ct %s`.
var logLineRe = regexp.MustCompile(`^'(.*)' ([0-9a-f]+) (\d+) ?(.*)$`)

func parseLogLine(line string) (scm.Commit, bool) {
	m := logLineRe.FindStringSubmatch(line)
	if m == nil {
		return scm.Commit{}, false
	}
	ts, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return scm.Commit{}, false
	}
	return scm.Commit{
		Hash:    m[2],
		Author:  m[1],
		Date:    time.Unix(ts, 0),
		Summary: m[4],
	}, true
}

// blameLineRe matches default `git blame` output:
//
//	3b1f2a9c (Jane Doe 2024-05-01 10:20:30 +0200 12) code...
//
// Boundary commits carry a leading caret.
var blameLineRe = regexp.MustCompile(
	`^(\^?[0-9a-f]+)\S*\s+\((.+?)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} [-+]\d{4})\s+\d+\)`)

func parseBlameLine(line string) (scm.BlameEntry, bool) {
	m := blameLineRe.FindStringSubmatch(line)
	if m == nil {
		return scm.BlameEntry{}, false
	}
	return scm.BlameEntry{
		Commit: strings.TrimPrefix(m[1], "^"),
		Author: strings.TrimSpace(m[2]),
		Date:   m[3],
	}, true
}

// parseNumstat sums `diff --numstat` columns. Binary files report "-" and
// are skipped.
func parseNumstat(out string) scm.DiffStats {
	var stats scm.DiffStats
	for line := range strings.SplitSeq(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		ins, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		del, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		stats.Inserts += ins
		stats.Deletes += del
	}
	return stats
}

// parseCommitInfo reads the header block emitted by `show --no-patch`.
func parseCommitInfo(lines []string) *scm.Commit {
	commit := &scm.Commit{}
	var message []string
	inMessage := false
	for _, line := range lines {
		switch {
		case inMessage:
			message = append(message, strings.TrimPrefix(line, "    "))
		case strings.HasPrefix(line, "commit "):
			commit.Hash = strings.Fields(line)[1]
		case strings.HasPrefix(line, "Author:"):
			commit.Author = strings.TrimSpace(strings.TrimPrefix(line, "Author:"))
		case strings.HasPrefix(line, "Date:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Date:"))
			if when, err := time.Parse("Mon Jan 2 15:04:05 2006 -0700", raw); err == nil {
				commit.Date = when
			}
		case line == "":
			if commit.Hash != "" {
				inMessage = true
			}
		default:
			// Merge:, Commit:, and other headers outside the model.
		}
	}
	commit.Message = strings.TrimRight(strings.Join(message, "\n"), "\n")
	if commit.Message != "" {
		commit.Summary = strings.SplitN(commit.Message, "\n", 2)[0]
	}
	return commit
}
