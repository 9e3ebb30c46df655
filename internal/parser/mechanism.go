package parser

import (
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

var mechanismFields = fieldTable{
	{name: fName, keywords: []string{"name", "mechanism"}, exclude: []string{"type", "category"}},
	{name: fCategory, keywords: []string{"category", "type"}},
	{name: fDescription, keywords: []string{"description"}},
	{name: fCoverage, keywords: []string{"diagnostic coverage", "coverage", "dc"}, exclude: []string{"cover fsr", "covered fsr"}},
	{name: fASIL, keywords: []string{"asil"}},
	{name: fCovers, keywords: []string{"covered fsrs", "covers", "fsrs", "fsr"}},
}

// ParseMechanisms extracts safety mechanisms from bold-label blocks opened by
// "SM-..." markers. The ASIL field may list several levels; the covers field
// is a comma-separated list of FSR identifiers.
func ParseMechanisms(text string) Result[safety.SafetyMechanism] {
	diags := &diagSink{}
	raws := scanBlocks(text, blockSpec{
		recordPrefix: "SM-",
		fields:       mechanismFields,
		continuation: fDescription,
	}, diags)
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no safety mechanism blocks (SM-...) recognized")
	}

	out := make([]safety.SafetyMechanism, 0, len(raws))
	for _, r := range raws {
		m := safety.SafetyMechanism{
			ID:                 r.id,
			Name:               orDefault(r.fields[fName], r.id),
			Category:           safety.ParseMechanismCategory(orDefault(r.fields[fCategory], r.fields[fName])),
			Description:        r.fields[fDescription],
			DiagnosticCoverage: r.fields[fCoverage],
			CoveredFSRs:        splitList(r.fields[fCovers]),
		}
		for _, tok := range strings.FieldsFunc(r.fields[fASIL], isListSep) {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			a, known := safety.ParseASIL(tok)
			if !known {
				diags.add(r.line, DiagUnknownASIL, "%s: ASIL %q not recognized, using QM", r.id, tok)
			}
			m.ASILs = append(m.ASILs, a)
		}
		out = append(out, m)
	}
	return Result[safety.SafetyMechanism]{Records: out, Diagnostics: diags.items}
}
