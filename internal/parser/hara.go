package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

var hazardFields = fieldTable{
	{name: fID, keywords: []string{"hazard id", "id"}},
	{name: fFunction, keywords: []string{"function"}},
	{name: fMalfunction, keywords: []string{"malfunction"}},
	{name: fHazard, keywords: []string{"hazard", "hazardous event"}},
	{name: fSituation, keywords: []string{"situation", "scenario"}},
	{name: fSeverity, keywords: []string{"severity", "(s)"}},
	{name: fExposure, keywords: []string{"exposure", "(e)"}},
	{name: fControl, keywords: []string{"controllability", "(c)"}},
	{name: fASIL, keywords: []string{"asil"}},
	{name: fGoal, keywords: []string{"safety goal", "goal"}},
	{name: fSafeState, keywords: []string{"safe state"}},
	{name: fFTTI, keywords: []string{"ftti", "time"}},
}

// hazardPositional is the legacy 12-column order; the last two columns are
// optional.
var hazardPositional = []string{
	fID, fFunction, fMalfunction, fHazard, fSituation,
	fSeverity, fExposure, fControl, fASIL, fGoal, fSafeState, fFTTI,
}

func isHazardID(s string) bool {
	return s != "" && !strings.Contains(s, "ID") && hasDigit.MatchString(s)
}

// ParseHARA extracts hazard entries from a markdown HARA table. Rows with
// fewer than 10 cells are skipped; missing safe state and FTTI become "N/A".
func ParseHARA(text string) Result[safety.HazardEntry] {
	diags := &diagSink{}
	raws := scanTable(text, tableSpec{
		fields:     hazardFields,
		isRow:      isHazardID,
		minCells:   10,
		positional: hazardPositional,
	}, diags)
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no HARA table with a Hazard ID header recognized")
	}

	out := make([]safety.HazardEntry, 0, len(raws))
	for _, r := range raws {
		a, known := safety.ParseASIL(r.fields[fASIL])
		if !known {
			diags.add(r.line, DiagUnknownASIL, "%s: ASIL %q not recognized, using QM", r.id, r.fields[fASIL])
		}
		out = append(out, safety.HazardEntry{
			ID:              r.id,
			Function:        r.fields[fFunction],
			Malfunction:     r.fields[fMalfunction],
			Hazard:          r.fields[fHazard],
			Situation:       r.fields[fSituation],
			Severity:        r.fields[fSeverity],
			Exposure:        r.fields[fExposure],
			Controllability: r.fields[fControl],
			ASIL:            a,
			SafetyGoal:      r.fields[fGoal],
			SafeState:       orDefault(r.fields[fSafeState], safety.NotAvailable),
			FTTI:            orDefault(r.fields[fFTTI], safety.NotAvailable),
		})
	}
	return Result[safety.HazardEntry]{Records: out, Diagnostics: diags.items}
}

var goalIDToken = regexp.MustCompile(`\bSG-[A-Za-z0-9]*\d[A-Za-z0-9-]*`)

// DeriveGoals collapses hazard entries into one safety goal per unique goal
// text, in first-appearance order. The goal takes the highest ASIL among its
// entries and the safe state and FTTI of the first one. Its id is the
// "SG-..." token in the text when present, otherwise SG-001, SG-002, ...
func DeriveGoals(hazards []safety.HazardEntry) []safety.SafetyGoal {
	var (
		goals []safety.SafetyGoal
		index = make(map[string]int)
		used  = make(map[string]bool)
	)
	for _, h := range hazards {
		text := strings.TrimSpace(h.SafetyGoal)
		if text == "" || text == safety.NotAvailable {
			continue
		}
		if i, ok := index[text]; ok {
			goals[i].ASIL = safety.MaxASIL(goals[i].ASIL, h.ASIL)
			continue
		}
		id := goalIDToken.FindString(text)
		statement := text
		if id != "" {
			statement = strings.TrimSpace(strings.TrimLeft(strings.Replace(text, id, "", 1), ":-– "))
		}
		index[text] = len(goals)
		goals = append(goals, safety.SafetyGoal{
			ID:        id,
			Statement: orDefault(statement, text),
			ASIL:      h.ASIL,
			SafeState: h.SafeState,
			FTTI:      h.FTTI,
		})
		if id != "" {
			used[id] = true
		}
	}

	n := 0
	for i := range goals {
		if goals[i].ID != "" {
			continue
		}
		for {
			n++
			id := fmt.Sprintf("SG-%03d", n)
			if !used[id] {
				goals[i].ID = id
				used[id] = true
				break
			}
		}
	}
	return goals
}

var goalFields = fieldTable{
	{name: fID, keywords: []string{"goal id", "sg id", "id"}},
	{name: fStatement, keywords: []string{"safety goal", "goal", "statement", "description"}},
	{name: fASIL, keywords: []string{"asil"}},
	{name: fSafeState, keywords: []string{"safe state"}},
	{name: fFTTI, keywords: []string{"ftti", "time"}},
}

func isGoalID(s string) bool {
	return strings.HasPrefix(s, "SG-") && hasDigit.MatchString(s)
}

// ParseGoals extracts safety goals from a table with an ID column.
func ParseGoals(text string) Result[safety.SafetyGoal] {
	diags := &diagSink{}
	raws := scanTable(text, tableSpec{fields: goalFields, isRow: isGoalID, minCells: 2}, diags)
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no safety goal table recognized")
	}
	out := make([]safety.SafetyGoal, 0, len(raws))
	for _, r := range raws {
		a, known := safety.ParseASIL(r.fields[fASIL])
		if !known {
			diags.add(r.line, DiagUnknownASIL, "%s: ASIL %q not recognized, using QM", r.id, r.fields[fASIL])
		}
		out = append(out, safety.SafetyGoal{
			ID:        r.id,
			Statement: r.fields[fStatement],
			ASIL:      a,
			SafeState: orDefault(r.fields[fSafeState], safety.NotAvailable),
			FTTI:      orDefault(r.fields[fFTTI], safety.NotAvailable),
		})
	}
	return Result[safety.SafetyGoal]{Records: out, Diagnostics: diags.items}
}
