// Package format is the single mapping from semantic values to presentation
// tags. Sinks decide what a tag looks like; the palette below is the
// spreadsheet rendering of each tag.
package format

import (
	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

// Tag is a presentation class attached to a cell.
type Tag string

const (
	TagPlain    Tag = ""
	TagCritical Tag = "critical"
	TagHigh     Tag = "high"
	TagMedium   Tag = "medium"
	TagLow      Tag = "low"
	TagNone     Tag = "none"
	TagOK       Tag = "ok"
	TagError    Tag = "error"
	TagWarning  Tag = "warning"
	TagNeutral  Tag = "neutral"
	TagHeader   Tag = "header"
	TagTitle    Tag = "title"
	TagEmphasis Tag = "emphasis"
)

// ASIL maps D→critical, C→high, B→medium, A→low, QM→none.
func ASIL(a safety.ASIL) Tag {
	switch a {
	case safety.ASILD:
		return TagCritical
	case safety.ASILC:
		return TagHigh
	case safety.ASILB:
		return TagMedium
	case safety.ASILA:
		return TagLow
	default:
		return TagNone
	}
}

// Status maps Pass→ok, Fail→error, Partial→warning and N/A→neutral.
// An unrecognized status is neutral.
func Status(s safety.ReviewStatus) Tag {
	switch s {
	case safety.StatusPass:
		return TagOK
	case safety.StatusFail:
		return TagError
	case safety.StatusPartial:
		return TagWarning
	default:
		return TagNeutral
	}
}

// Risk maps a freedom-from-interference tier: HIGH→error, MEDIUM→warning,
// LOW→ok.
func Risk(r aggregate.Risk) Tag {
	switch r {
	case aggregate.RiskHigh:
		return TagError
	case aggregate.RiskMedium:
		return TagWarning
	default:
		return TagOK
	}
}

// Check maps PASS→ok, PARTIAL→warning, FAIL→error.
func Check(c aggregate.Check) Tag {
	switch c {
	case aggregate.CheckPass:
		return TagOK
	case aggregate.CheckPartial:
		return TagWarning
	default:
		return TagError
	}
}

// Assessment maps a review compliance band.
func Assessment(band string) Tag {
	switch band {
	case aggregate.AssessExcellent:
		return TagOK
	case aggregate.AssessGood, aggregate.AssessFair:
		return TagWarning
	default:
		return TagError
	}
}

// Covered maps a coverage flag: covered→ok, otherwise error.
func Covered(ok bool) Tag {
	if ok {
		return TagOK
	}
	return TagError
}

// Icon is the text marker used where color is unavailable.
func Icon(t Tag) string {
	switch t {
	case TagOK:
		return "✅"
	case TagError, TagCritical:
		return "❌"
	case TagWarning, TagHigh:
		return "⚠️"
	case TagNeutral:
		return "➖"
	default:
		return ""
	}
}

// Palette is the spreadsheet rendering of a tag. Colors are RGB hex.
type Palette struct {
	Fill string
	Font string
	Bold bool
}

var palettes = map[Tag]Palette{
	TagCritical: {Fill: "FFC7CE", Font: "9C0006", Bold: true},
	TagHigh:     {Fill: "FFEB9C", Font: "9C6500", Bold: true},
	TagMedium:   {Fill: "C6EFCE", Font: "006100", Bold: true},
	TagLow:      {Fill: "DDEBF7", Bold: true},
	TagNone:     {Fill: "E0E0E0"},
	TagOK:       {Fill: "C6EFCE", Font: "006100"},
	TagError:    {Fill: "FFC7CE", Font: "9C0006"},
	TagWarning:  {Fill: "FFEB9C", Font: "9C5700"},
	TagNeutral:  {Fill: "F2F2F2", Font: "7F7F7F"},
	TagHeader:   {Fill: "00467F", Font: "FFFFFF", Bold: true},
	TagTitle:    {Fill: "365F91", Font: "FFFFFF", Bold: true},
	TagEmphasis: {Bold: true},
}

// Tags lists every styled tag, for sinks that pre-register styles.
func Tags() []Tag {
	return []Tag{
		TagCritical, TagHigh, TagMedium, TagLow, TagNone,
		TagOK, TagError, TagWarning, TagNeutral,
		TagHeader, TagTitle, TagEmphasis,
	}
}

// PaletteFor returns the palette of t and whether t is styled at all.
func PaletteFor(t Tag) (Palette, bool) {
	p, ok := palettes[t]
	return p, ok
}
