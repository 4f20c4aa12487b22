package scm

import (
	"regexp"
	"strconv"
	"strings"
)

// LineChange classifies one destination-file line of a unified diff.
type LineChange string

const (
	LineAddition     LineChange = "addition"
	LineDeletion     LineChange = "deletion"
	LineModification LineChange = "modification"
)

// LineMap maps destination-file line numbers to their change class. Lines
// absent from the map are unchanged context.
type LineMap map[int]LineChange

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// delRange is a run of deleted lines anchored at the destination-file
// position the removed content would occupy.
type delRange struct {
	anchor int
	count  int
}

// addRange is a run of inserted destination-file lines, inclusive.
type addRange struct {
	start int
	end   int
}

// ClassifyDiff parses unified-diff text into a per-line change map. Input
// that matches no hunk grammar yields an empty map; unexpected lines are
// skipped rather than failing the parse.
func ClassifyDiff(text string) LineMap {
	result := LineMap{}
	var dels []delRange
	var adds []addRange

	var (
		inHunk   bool
		oldLine  int
		newLine  int
		oldBound int
		newBound int
	)
	var pendingDel *delRange
	var pendingAdd *addRange

	flush := func() {
		if pendingDel != nil {
			dels = append(dels, *pendingDel)
			pendingDel = nil
		}
		if pendingAdd != nil {
			adds = append(adds, *pendingAdd)
			pendingAdd = nil
		}
	}

	for line := range strings.SplitSeq(text, "\n") {
		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			oldStart := atoiDefault(m[1], 1)
			oldCount := atoiDefault(m[2], 1)
			newStart := atoiDefault(m[3], 1)
			newCount := atoiDefault(m[4], 1)
			oldLine, oldBound = oldStart, oldStart+oldCount
			newLine, newBound = newStart, newStart+newCount
			inHunk = true
			continue
		}
		if !inHunk || line == "" {
			continue
		}
		if oldLine >= oldBound && newLine >= newBound {
			// Hunk exhausted; what follows (file headers, index lines) is
			// not content until the next @@ header.
			flush()
			inHunk = false
			continue
		}
		switch line[0] {
		case '-':
			if oldLine >= oldBound {
				continue
			}
			if pendingDel == nil {
				pendingDel = &delRange{anchor: newLine, count: 1}
			} else {
				pendingDel.count++
			}
			oldLine++
			if oldLine >= oldBound {
				if pendingDel != nil {
					dels = append(dels, *pendingDel)
					pendingDel = nil
				}
			}
		case '+':
			if newLine >= newBound {
				continue
			}
			if pendingAdd == nil {
				pendingAdd = &addRange{start: newLine, end: newLine}
			} else {
				pendingAdd.end = newLine
			}
			newLine++
			if newLine >= newBound {
				if pendingAdd != nil {
					adds = append(adds, *pendingAdd)
					pendingAdd = nil
				}
			}
		case ' ':
			flush()
			oldLine++
			newLine++
		default:
			// "\ No newline at end of file" and anything else outside
			// the grammar: skip, keep parsing.
		}
	}
	flush()

	// Reconcile: a deletion whose anchor coincides with an insertion is one
	// edit, not a delete plus an insert.
	for _, d := range dels {
		matched := false
		for _, a := range adds {
			if a.start != d.anchor {
				continue
			}
			matched = true
			end := d.anchor + d.count - 1
			if end > a.end {
				end = a.end
			}
			for line := d.anchor; line <= end; line++ {
				result[line] = LineModification
			}
			break
		}
		if !matched {
			// Removed lines have no position of their own in the new file;
			// mark only the anchor.
			result[d.anchor] = LineDeletion
		}
	}
	for _, a := range adds {
		for line := a.start; line <= a.end; line++ {
			if _, ok := result[line]; !ok {
				result[line] = LineAddition
			}
		}
	}
	return result
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
