package parser

import (
	"fmt"

	"github.com/sahilm/fuzzy"
)

// DiagnosticKind classifies an uncertain parse decision.
type DiagnosticKind string

const (
	DiagUnknownASIL     DiagnosticKind = "unknown_asil"
	DiagUnknownStatus   DiagnosticKind = "unknown_status"
	DiagUnmatchedGroup  DiagnosticKind = "unmatched_group"
	DiagOrphanField     DiagnosticKind = "orphan_field"
	DiagUnknownRecord   DiagnosticKind = "unknown_record"
	DiagShortRow        DiagnosticKind = "short_row"
	DiagNoStructure     DiagnosticKind = "no_structure"
	DiagUngroupedRecord DiagnosticKind = "ungrouped_record"
)

// Diagnostic explains one lenient decision. Line is 1-based, 0 when the
// decision is not tied to a line. Diagnostics never change parsed values.
type Diagnostic struct {
	Line    int            `json:"line,omitempty"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// Result is the output of one parse: the records in input order plus any
// diagnostics. An empty Records slice means "could not parse" as much as
// "nothing there"; callers decide which matters.
type Result[T any] struct {
	Records     []T          `json:"records"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type diagSink struct {
	items []Diagnostic
}

func (d *diagSink) add(line int, kind DiagnosticKind, format string, args ...any) {
	d.items = append(d.items, Diagnostic{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// suggest returns the closest candidate to s, or "" when nothing is close.
func suggest(s string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	matches := fuzzy.Find(s, candidates)
	if len(matches) > 0 {
		return matches[0].Str
	}
	return ""
}
