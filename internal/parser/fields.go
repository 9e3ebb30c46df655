// Package parser turns LLM-generated markdown into safety records.
//
// Two layouts are understood and auto-detected:
//
//   - pipe tables, where a header row maps columns to fields
//   - bold-label blocks, where "**Field:** value" lines fill the record
//     opened by the last record marker
//
// Both layouts reduce to the same intermediate form (rawRecord) and go
// through the same conversion, so equivalent inputs yield equal records.
// The parser never fails: unrecognized lines are skipped and uncertain
// decisions are reported as Diagnostics.
package parser

import (
	"regexp"
	"strings"
)

// field maps a canonical field name to the label keywords that select it.
// A label matches a keyword when it contains it (or equals it, for exact
// fields). Labels containing any exclude word never match the field.
type field struct {
	name     string
	keywords []string
	exclude  []string
	exact    bool
}

type fieldTable []field

// match returns the canonical field for label, or "" when nothing matches.
// The longest matching keyword wins; ties go to the earlier field.
func (ft fieldTable) match(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return ""
	}
	best, bestLen := "", 0
	for _, f := range ft {
		if containsAny(l, f.exclude) {
			continue
		}
		for _, kw := range f.keywords {
			ok := strings.Contains(l, kw)
			if f.exact {
				ok = l == kw
			}
			if ok && len(kw) > bestLen {
				best, bestLen = f.name, len(kw)
			}
		}
	}
	return best
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Canonical field names shared by tables and blocks.
const (
	fID             = "id"
	fFunction       = "function"
	fMalfunction    = "malfunction"
	fHazard         = "hazard"
	fSituation      = "situation"
	fSeverity       = "severity"
	fExposure       = "exposure"
	fControl        = "controllability"
	fASIL           = "asil"
	fGoal           = "goal"
	fStatement      = "statement"
	fSafeState      = "safe_state"
	fFTTI           = "ftti"
	fDescription    = "description"
	fType           = "type"
	fAllocatedTo    = "allocated_to"
	fComponentType  = "component_type"
	fRationale      = "rationale"
	fInterface      = "interface"
	fVerification   = "verification"
	fOperatingModes = "operating_modes"
	fName           = "name"
	fCategory       = "category"
	fCoverage       = "coverage"
	fCovers         = "covers"
	fRequirement    = "requirement"
	fClause         = "iso_clause"
	fStatus         = "status"
	fComment        = "comment"
	fHint           = "hint"
)

// boldLabel matches "**Label:** value" and "**Label**: value", optionally
// after a list marker.
var boldLabel = regexp.MustCompile(`^\*\*\s*([^*]+?)\s*(?::\s*\*\*|\*\*\s*:)\s*(.*)$`)

// listMarker strips a leading "-", "*", "+" or "1." list marker followed by
// whitespace. A bare "**" is not a list marker.
var listMarker = regexp.MustCompile(`^(?:[-+]|\*(?:\s)|\d+[.)])\s*`)

// stripListMarker removes list markers and markdown heading hashes.
func stripListMarker(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	if loc := listMarker.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// parseBoldLabel splits a "**Label:** value" line.
func parseBoldLabel(line string) (label, value string, ok bool) {
	m := boldLabel.FindStringSubmatch(stripListMarker(line))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// cleanCell removes emphasis markers and surrounding whitespace.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Trim(s, "*_` ")
	return strings.TrimSpace(s)
}

// splitList splits "SG-001, SG-002; SG-003" into trimmed tokens, keeping
// only the first word of each ("SG-001 (braking)" → "SG-001").
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, isListSep)
	var out []string
	for _, p := range parts {
		p = cleanCell(p)
		if p == "" {
			continue
		}
		if fs := strings.Fields(p); len(fs) > 0 {
			out = append(out, strings.Trim(fs[0], "()[]:."))
		}
	}
	return out
}

func isListSep(r rune) bool { return r == ',' || r == ';' || r == '/' }

// orDefault returns def when s is blank.
func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
