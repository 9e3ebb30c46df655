package parser

import (
	"regexp"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

// FSRGroupMarker opens the section for one safety goal in block layout.
const FSRGroupMarker = "FSRs for Safety Goal:"

var fsrFields = fieldTable{
	{name: fID, keywords: []string{"fsr id", "fsr-id", "id"}, exact: true},
	{name: fDescription, keywords: []string{"description", "requirement"}},
	{name: fType, keywords: []string{"type"}, exclude: []string{"component", "element"}},
	{name: fASIL, keywords: []string{"asil"}, exclude: []string{"linked"}},
	{name: fGoal, keywords: []string{"safety goal", "parent", "linked sg", "linked-sg", "linked goal", "goal"}},
	{name: fOperatingModes, keywords: []string{"operating mode", "mode"}},
	{name: fAllocatedTo, keywords: []string{"preliminary allocation", "allocation", "allocated to"}, exclude: []string{"rationale", "justification"}},
	{name: fVerification, keywords: []string{"verification", "validation"}},
	{name: fFTTI, keywords: []string{"ftti", "fhti", "timing", "time"}},
	{name: fSafeState, keywords: []string{"safe state"}},
	{name: fComponentType, keywords: []string{"component type", "element type"}},
	{name: fRationale, keywords: []string{"allocation rationale", "rationale", "justification"}},
	{name: fInterface, keywords: []string{"interface"}},
}

var fsrIDPattern = regexp.MustCompile(`^FSR-.*\d`)

func isFSRID(s string) bool { return fsrIDPattern.MatchString(s) }

var fsrNumber = regexp.MustCompile(`FSR-(\d+)`)

// NormalizeFSRID qualifies an identifier with its goal: when id lacks the
// "FSR-SG-" prefix, the first "FSR-<digits>" is replaced by "FSR-<goalID>"
// ("FSR-001-DET-1" under SG-001 becomes "FSR-SG-001-DET-1").
func NormalizeFSRID(id, goalID string) string {
	if goalID == "" || strings.HasPrefix(id, "FSR-SG-") {
		return id
	}
	m := fsrNumber.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	return strings.Replace(id, "FSR-"+m[1], "FSR-"+goalID, 1)
}

// ParseFSRs extracts functional safety requirements. A pipe table with an ID
// header is preferred; otherwise the bold-label block layout is used with
// "FSRs for Safety Goal:" sections. ASIL, FTTI and safe state default to the
// linked goal's values.
func ParseFSRs(text string, goals []safety.SafetyGoal) Result[safety.FSR] {
	diags := &diagSink{}
	goalIDs := make([]string, len(goals))
	byID := make(map[string]safety.SafetyGoal, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
		byID[g.ID] = g
	}

	var raws []rawRecord
	if hasTable(text) {
		raws = scanTable(text, tableSpec{fields: fsrFields, isRow: isFSRID, minCells: 2}, diags)
	}
	if len(raws) == 0 {
		raws = scanBlocks(text, blockSpec{
			groupMarker:  FSRGroupMarker,
			groups:       goalIDs,
			recordPrefix: "FSR-",
			fields:       fsrFields,
			continuation: fDescription,
		}, diags)
	}
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no FSR table or FSR blocks recognized")
	}

	out := make([]safety.FSR, 0, len(raws))
	for _, r := range raws {
		out = append(out, buildFSR(r, goalIDs, byID, diags))
	}
	return Result[safety.FSR]{Records: out, Diagnostics: diags.items}
}

func buildFSR(r rawRecord, goalIDs []string, goals map[string]safety.SafetyGoal, diags *diagSink) safety.FSR {
	var links []string
	switch {
	case r.fields[fGoal] != "":
		links = splitList(r.fields[fGoal])
	case r.group != "":
		links = []string{r.group}
	default:
		if g := goalInID(r.id, goalIDs); g != "" {
			links = []string{g}
		} else {
			diags.add(r.line, DiagUngroupedRecord, "%s is not under any safety goal section", r.id)
		}
	}

	var parent safety.SafetyGoal
	if len(links) > 0 {
		parent = goals[links[0]]
	}

	id := NormalizeFSRID(r.id, firstOf(links))
	f := safety.FSR{
		ID:                  id,
		Description:         r.fields[fDescription],
		Type:                safety.TypeFromID(id),
		ASIL:                parent.ASIL,
		SafetyGoalIDs:       links,
		AllocatedTo:         r.fields[fAllocatedTo],
		AllocationRationale: r.fields[fRationale],
		ComponentType:       r.fields[fComponentType],
		Interface:           r.fields[fInterface],
		Verification:        r.fields[fVerification],
		Timing:              orDefault(r.fields[fFTTI], parent.FTTI),
		OperatingModes:      r.fields[fOperatingModes],
		SafeState:           orDefault(r.fields[fSafeState], parent.SafeState),
	}
	if f.Type == safety.TypeGeneral && r.fields[fType] != "" {
		f.Type = typeFromLabel(r.fields[fType])
	}
	if raw, ok := r.fields[fASIL]; ok && raw != "" {
		a, known := safety.ParseASIL(raw)
		if !known {
			diags.add(r.line, DiagUnknownASIL, "%s: ASIL %q not recognized, using QM", id, raw)
		}
		f.ASIL = a
	}
	return f
}

// typeFromLabel matches a free-text type column against type names.
func typeFromLabel(label string) safety.FSRType {
	l := strings.ToLower(label)
	for _, tc := range safety.TypeCodes {
		name := strings.ToLower(string(tc.Type))
		if l == strings.ToLower(tc.Code) || strings.Contains(l, name) || (len(l) >= 4 && strings.Contains(name, l)) {
			return tc.Type
		}
	}
	return safety.TypeGeneral
}

// goalInID returns the longest goal id embedded in an FSR identifier.
func goalInID(id string, goalIDs []string) string {
	best := ""
	for _, g := range goalIDs {
		if g != "" && strings.Contains(id, g) && len(g) > len(best) {
			best = g
		}
	}
	return best
}

func firstOf(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
