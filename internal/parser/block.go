package parser

import (
	"regexp"
	"strings"
)

// rawRecord is the layout-independent intermediate form: an identifier, the
// group it was found under, and canonical field values.
type rawRecord struct {
	id     string
	group  string
	line   int
	fields map[string]string
}

// blockSpec describes one bold-label block schema.
type blockSpec struct {
	// groupMarker, when set, is the text that opens a group section
	// (e.g. "FSRs for Safety Goal:"). groups lists the valid group ids.
	groupMarker string
	groups      []string

	// recordPrefix opens a record when a line starts with it (after list
	// markers) or contains it wrapped in "**".
	recordPrefix string

	// startField, when set, opens a record on a "**Label:** value" line
	// mapping to it; the value becomes the identifier.
	startField string

	fields fieldTable

	// continuation is the field that absorbs following free-text lines.
	continuation string
}

// scanBlocks implements the bold-label block algorithm:
//
//  1. a group marker line selects the current group, matched by id substring;
//     unmatched markers leave the group unchanged
//  2. a record marker flushes the open record and starts a new one
//  3. "**Field:** value" lines fill the open record
//  4. free text right after the continuation field extends it until a blank
//     line, heading, marker or field line
//  5. the open record is flushed at end of input
func scanBlocks(text string, bs blockSpec, diags *diagSink) []rawRecord {
	var (
		records []rawRecord
		current *rawRecord
		group   string
		cont    bool
	)
	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	for n, line := range strings.Split(text, "\n") {
		lineNo := n + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") && !bs.isRecordLine(trimmed) && !bs.isGroupLine(trimmed) {
			cont = false
			continue
		}

		if bs.isGroupLine(trimmed) {
			cont = false
			if g := bs.matchGroup(trimmed); g != "" {
				group = g
			} else {
				token := groupToken(trimmed, bs.groupMarker)
				if hint := suggest(token, bs.groups); hint != "" {
					diags.add(lineNo, DiagUnmatchedGroup, "group marker %q matches no known id (did you mean %s?); keeping %q", token, hint, group)
				} else {
					diags.add(lineNo, DiagUnmatchedGroup, "group marker %q matches no known id; keeping %q", token, group)
				}
			}
			continue
		}

		if id, ok := bs.recordID(trimmed); ok {
			flush()
			current = &rawRecord{id: id, group: group, line: lineNo, fields: make(map[string]string)}
			cont = false
			continue
		}

		if label, value, ok := parseBoldLabel(trimmed); ok {
			name := bs.fields.match(label)
			if bs.startField != "" && name == bs.startField {
				flush()
				current = &rawRecord{id: cleanCell(value), group: group, line: lineNo, fields: make(map[string]string)}
				current.fields[name] = cleanCell(value)
				cont = false
				continue
			}
			cont = false
			if current == nil {
				if name != "" {
					diags.add(lineNo, DiagOrphanField, "field %q appears before any record", label)
				}
				continue
			}
			if name == "" {
				continue
			}
			current.fields[name] = value
			cont = name == bs.continuation
			continue
		}

		if cont && current != nil {
			prev := current.fields[bs.continuation]
			current.fields[bs.continuation] = strings.TrimSpace(prev + " " + trimmed)
		}
	}
	flush()
	return records
}

func (bs blockSpec) isGroupLine(line string) bool {
	return bs.groupMarker != "" && strings.Contains(line, bs.groupMarker)
}

// matchGroup returns the longest valid group id contained in line.
func (bs blockSpec) matchGroup(line string) string {
	best := ""
	for _, g := range bs.groups {
		if g != "" && strings.Contains(line, g) && len(g) > len(best) {
			best = g
		}
	}
	return best
}

func groupToken(line, marker string) string {
	rest := line
	if i := strings.Index(line, marker); i >= 0 {
		rest = line[i+len(marker):]
	}
	if fs := strings.Fields(cleanCell(rest)); len(fs) > 0 {
		return strings.Trim(fs[0], "*:()[]")
	}
	return ""
}

func (bs blockSpec) isRecordLine(line string) bool {
	_, ok := bs.recordID(line)
	return ok
}

// recordID recognizes a record marker and extracts its identifier: the first
// word with emphasis removed.
func (bs blockSpec) recordID(line string) (string, bool) {
	if bs.recordPrefix == "" {
		return "", false
	}
	s := stripListMarker(line)
	if !strings.HasPrefix(s, bs.recordPrefix) && !strings.HasPrefix(s, "**"+bs.recordPrefix) {
		return "", false
	}
	s = strings.ReplaceAll(s, "*", "")
	fs := strings.Fields(s)
	if len(fs) == 0 {
		return "", false
	}
	id := strings.TrimRight(fs[0], ":.,;")
	if !hasDigit.MatchString(id) {
		return "", false
	}
	return id, true
}

var hasDigit = regexp.MustCompile(`\d`)
