package fossil

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scmkit/scmkit/internal/scm"
)

// statusByToken maps fossil's change vocabulary onto the canonical one.
// EXTRA is fossil's word for untracked. Tokens outside the model (MISSING,
// CONFLICT, UPDATED_BY_MERGE, ...) cause their lines to be skipped.
var statusByToken = map[string]scm.ChangeStatus{
	"ADDED":   scm.StatusAdded,
	"DELETED": scm.StatusDeleted,
	"EDITED":  scm.StatusEdited,
	"RENAMED": scm.StatusRenamed,
	"EXTRA":   scm.StatusUntracked,
}

// parseChangeLine normalizes one `changes --differ` line:
//
//	EDITED     src/main.c
//	RENAMED    old.c  ->  new.c
func parseChangeLine(dir, line string) (scm.FileChange, bool) {
	token, rest, found := strings.Cut(strings.TrimSpace(line), " ")
	if !found {
		return scm.FileChange{}, false
	}
	status, ok := statusByToken[token]
	if !ok {
		return scm.FileChange{}, false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return scm.FileChange{}, false
	}
	change := scm.FileChange{Status: status}
	if status == scm.StatusRenamed {
		if from, to, found := strings.Cut(rest, "->"); found {
			change.Path = absPath(dir, strings.TrimSpace(from))
			change.NewPath = absPath(dir, strings.TrimSpace(to))
			return change, true
		}
		// Older fossils print only the new name; keep it as the path so the
		// entry still surfaces.
	}
	change.Path = absPath(dir, rest)
	return change, true
}

func absPath(dir, p string) string {
	return filepath.Join(dir, filepath.FromSlash(p))
}

// timelineLineRe matches the custom format `'%a' %H '%d' %c`.
var timelineLineRe = regexp.MustCompile(`^'(.*)' ([0-9a-f]+) '([^']*)' ?(.*)$`)

func parseTimelineLine(line string) (scm.Commit, bool) {
	m := timelineLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return scm.Commit{}, false
	}
	commit := scm.Commit{
		Hash:    m[2],
		Author:  m[1],
		Summary: m[4],
	}
	if when, err := time.Parse("2006-01-02 15:04:05", m[3]); err == nil {
		commit.Date = when
	}
	return commit, true
}

// blameLineRe matches `fossil blame` columns: artifact, date, user, content.
var blameLineRe = regexp.MustCompile(`^\s*([0-9a-f]+)\s+(\d{4}-\d{2}-\d{2})\s+(\S+?):?\s`)

func parseBlameLine(line string) (scm.BlameEntry, bool) {
	m := blameLineRe.FindStringSubmatch(line)
	if m == nil {
		return scm.BlameEntry{}, false
	}
	return scm.BlameEntry{Commit: m[1], Author: m[3], Date: m[2]}, true
}

// parseNumstat sums `diff --numstat` columns, same shape as git's.
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

// parseInfo reads the key/value block emitted by `info <id>`:
//
//	hash:         0a1b2c... 2024-05-01 10:20:30 UTC
//	user:         drh
//	comment:      Fix the parser. (user: drh)
func parseInfo(lines []string) *scm.Commit {
	commit := &scm.Commit{}
	for _, line := range lines {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "hash", "uuid":
			fields := strings.Fields(value)
			if len(fields) == 0 {
				continue
			}
			commit.Hash = fields[0]
			if len(fields) >= 3 {
				raw := fields[1] + " " + fields[2]
				if when, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
					commit.Date = when
				}
			}
		case "user":
			commit.Author = value
		case "comment":
			commit.Message = value
			commit.Summary = strings.SplitN(value, "\n", 2)[0]
		}
	}
	return commit
}
