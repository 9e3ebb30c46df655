package parser

import (
	"github.com/HendryAvila/fusadocs/internal/safety"
)

var allocationFields = fieldTable{
	{name: fID, keywords: []string{"fsr id", "fsr-id", "id", "fsr"}, exact: true},
	{name: fAllocatedTo, keywords: []string{"allocated to", "allocation", "component", "element"}, exclude: []string{"type", "rationale", "justification"}},
	{name: fComponentType, keywords: []string{"component type", "element type", "type"}},
	{name: fRationale, keywords: []string{"allocation rationale", "rationale", "justification"}},
	{name: fInterface, keywords: []string{"interface"}},
	{name: fDescription, keywords: []string{"description"}},
}

// ParseAllocation reads allocation decisions (table rows or "**FSR-...**"
// blocks) and applies them to copies of fsrs. The input slice is not
// modified. Entries naming an unknown FSR are reported and ignored; fields
// left blank keep their previous value.
func ParseAllocation(text string, fsrs []safety.FSR) Result[safety.FSR] {
	diags := &diagSink{}

	var raws []rawRecord
	if hasTable(text) {
		raws = scanTable(text, tableSpec{fields: allocationFields, isRow: isFSRID, minCells: 2}, diags)
	}
	if len(raws) == 0 {
		raws = scanBlocks(text, blockSpec{
			recordPrefix: "FSR-",
			fields:       allocationFields,
		}, diags)
	}
	if len(raws) == 0 {
		diags.add(0, DiagNoStructure, "no allocation table or FSR blocks recognized")
	}

	out := make([]safety.FSR, len(fsrs))
	copy(out, fsrs)
	index := make(map[string]int, len(out))
	for i, f := range out {
		index[f.ID] = i
	}

	for _, r := range raws {
		i, ok := index[r.id]
		if !ok {
			diags.add(r.line, DiagUnknownRecord, "allocation names unknown requirement %s", r.id)
			continue
		}
		f := &out[i]
		setIfPresent(&f.AllocatedTo, r.fields[fAllocatedTo])
		setIfPresent(&f.ComponentType, r.fields[fComponentType])
		setIfPresent(&f.AllocationRationale, r.fields[fRationale])
		setIfPresent(&f.Interface, r.fields[fInterface])
	}
	return Result[safety.FSR]{Records: out, Diagnostics: diags.items}
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
