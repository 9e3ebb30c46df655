package parser

import (
	"github.com/HendryAvila/fusadocs/internal/safety"
)

var reviewFields = fieldTable{
	{name: fID, keywords: []string{"id"}, exact: true},
	{name: fCategory, keywords: []string{"category"}},
	{name: fRequirement, keywords: []string{"requirement"}},
	{name: fDescription, keywords: []string{"description"}},
	{name: fClause, keywords: []string{"iso clause", "clause"}},
	{name: fStatus, keywords: []string{"status"}},
	{name: fComment, keywords: []string{"comment"}},
	{name: fHint, keywords: []string{"hint for improvement", "hint", "improvement"}},
}

// ParseReview extracts review findings. Each finding starts at an
// "**ID:**" line and collects the labelled fields that follow it.
// Separator lines ("---", "===") carry no meaning.
func ParseReview(text string) Result[safety.ReviewFinding] {
	diags := &diagSink{}
	raws := scanBlocks(text, blockSpec{
		startField:   fID,
		fields:       reviewFields,
		continuation: fDescription,
	}, diags)
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no review items (**ID:** lines) recognized")
	}

	out := make([]safety.ReviewFinding, 0, len(raws))
	for _, r := range raws {
		raw := r.fields[fStatus]
		status := safety.ClassifyStatus(raw)
		if status == safety.StatusUnknown {
			diags.add(r.line, DiagUnknownStatus, "%s: status %q not recognized", r.id, raw)
		}
		out = append(out, safety.ReviewFinding{
			ID:          r.id,
			Category:    r.fields[fCategory],
			Requirement: r.fields[fRequirement],
			Description: r.fields[fDescription],
			ISOClause:   r.fields[fClause],
			Status:      status,
			RawStatus:   raw,
			Comment:     r.fields[fComment],
			Hint:        r.fields[fHint],
		})
	}
	return Result[safety.ReviewFinding]{Records: out, Diagnostics: diags.items}
}
