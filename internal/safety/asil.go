// Package safety defines the record schema shared by every fusadocs component:
// hazard entries, safety goals, functional safety requirements, review findings
// and safety mechanisms, plus the small closed enumerations they use.
//
// The package holds data and pure classification helpers only. Parsing lives
// in internal/parser, derived views in internal/aggregate.
package safety

import (
	"fmt"
	"strings"
)

// --- ASIL enum ---

// ASIL is the Automotive Safety Integrity Level. The zero value is QM.
type ASIL int

const (
	QM ASIL = iota
	ASILA
	ASILB
	ASILC
	ASILD
)

// ASILOrder is the display order used by every grouped view: highest first.
var ASILOrder = []ASIL{ASILD, ASILC, ASILB, ASILA, QM}

var asilNames = map[ASIL]string{
	QM:    "QM",
	ASILA: "A",
	ASILB: "B",
	ASILC: "C",
	ASILD: "D",
}

var asilByName = map[string]ASIL{
	"QM": QM,
	"A":  ASILA,
	"B":  ASILB,
	"C":  ASILC,
	"D":  ASILD,
}

// String returns the short level name ("D", "QM").
func (a ASIL) String() string {
	if name, ok := asilNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ASIL(%d)", int(a))
}

// Label returns the long form used in documents ("ASIL D", "QM").
func (a ASIL) Label() string {
	if a == QM {
		return "QM"
	}
	return "ASIL " + a.String()
}

// Rank is the severity rank: QM=0 ... D=4.
func (a ASIL) Rank() int { return int(a) }

// IsHigh reports whether the level is C or D.
func (a ASIL) IsHigh() bool { return a == ASILC || a == ASILD }

// ParseASIL normalizes free text such as "ASIL D", "d" or "QM".
// Unrecognized input returns QM and false; callers that care record a
// diagnostic, the value itself stays QM.
func ParseASIL(raw string) (ASIL, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimSpace(strings.ReplaceAll(s, "ASIL", ""))
	s = strings.Trim(s, "*-:() ")
	if fs := strings.Fields(s); len(fs) > 0 {
		s = strings.Trim(fs[0], "*-:(),.")
	}
	if a, ok := asilByName[s]; ok {
		return a, true
	}
	return QM, false
}

// MaxASIL returns the highest level in levels, or QM for an empty slice.
func MaxASIL(levels ...ASIL) ASIL {
	highest := QM
	for _, l := range levels {
		if l > highest {
			highest = l
		}
	}
	return highest
}

// MarshalText encodes the level by its short name.
func (a ASIL) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts the same spellings as ParseASIL but rejects unknown input.
func (a *ASIL) UnmarshalText(b []byte) error {
	v, ok := ParseASIL(string(b))
	if !ok {
		return fmt.Errorf("invalid ASIL %q: must be one of: QM, A, B, C, D", string(b))
	}
	*a = v
	return nil
}
