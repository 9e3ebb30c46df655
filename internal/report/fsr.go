package report

import (
	"strings"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

const fsrClause = "ISO 26262-3:2018 - Clause 7"

var fsrColumns = []column[safety.FSR]{
	{"FSR ID", 22, func(f safety.FSR) Cell { return text(f.ID) }},
	{"Description", 50, func(f safety.FSR) Cell { return text(f.Description) }},
	{"Type", 20, func(f safety.FSR) Cell { return text(string(f.Type)) }},
	{"ASIL", 10, func(f safety.FSR) Cell { return asilCell(f.ASIL) }},
	{"Linked-SG", 14, func(f safety.FSR) Cell { return text(strings.Join(f.SafetyGoalIDs, ", ")) }},
	{"Operating Modes", 20, func(f safety.FSR) Cell { return text(f.OperatingModes) }},
	{"Preliminary Allocation", 22, allocationCell},
	{"Verification Criteria", 40, func(f safety.FSR) Cell { return text(f.Verification) }},
	{"Timing (FTTI/FHTI)", 14, func(f safety.FSR) Cell { return text(f.Timing) }},
}

func allocationCell(f safety.FSR) Cell {
	if !f.Allocated() {
		return tagged(safety.Unallocated, format.TagWarning)
	}
	return text(f.AllocatedTo)
}

// typeOrder is the display order of FSR types.
func typeOrder() []safety.FSRType {
	out := make([]safety.FSRType, 0, len(safety.TypeCodes)+1)
	for _, tc := range safety.TypeCodes {
		out = append(out, tc.Type)
	}
	return append(out, safety.TypeGeneral)
}

func fsrASIL(f safety.FSR) safety.ASIL { return f.ASIL }

func fsrType(f safety.FSR) safety.FSRType { return f.Type }

func buildFSR(ds safety.Dataset, _ Options) []Section {
	system := systemName(ds)
	return []Section{
		fsrSummary(system, ds),
		table("FSR Details", "Functional Safety Requirements: "+system, fsrClause, fsrColumns, ds.FSRs),
	}
}

func fsrSummary(system string, ds safety.Dataset) Section {
	total := len(ds.FSRs)
	rows := []metric{
		{label: "Total Safety Goals", value: num(len(ds.Goals))},
		{label: "Total FSRs", value: num(total)},
	}

	rows = append(rows, heading("ASIL Distribution"))
	for _, s := range aggregate.ASILDistribution(ds.FSRs, fsrASIL) {
		rows = append(rows, metric{label: s.Key.Label(), value: Cell{Value: s.Count, Tag: format.ASIL(s.Key)}, share: s.PercentString(total)})
	}

	rows = append(rows, heading("FSR Type Distribution"))
	for _, s := range aggregate.Distribution(ds.FSRs, fsrType, typeOrder()) {
		rows = append(rows, metric{label: string(s.Key), value: num(s.Count), share: s.PercentString(total)})
	}

	counts, _ := aggregate.TypeCoverage(ds.FSRs)
	rows = append(rows, heading("Type Coverage"))
	for _, fam := range []safety.TypeFamily{safety.FamilyDetection, safety.FamilyReaction, safety.FamilyIndication} {
		rows = append(rows, metric{label: titleCase(string(fam)), value: Cell{Value: counts[fam], Tag: format.Covered(counts[fam] > 0)}})
	}

	cov := aggregate.GoalCoverage(ds.Goals, ds.FSRs)
	rows = append(rows,
		heading("Safety Goal Coverage"),
		metric{
			label: "Goals with at least one FSR",
			value: Cell{Value: cov.Covered, Tag: format.Covered(cov.Covered == cov.Total)},
			share: aggregate.Percent(cov.Covered, cov.Total),
		},
	)
	if len(cov.Uncovered) > 0 {
		rows = append(rows, metric{label: "Uncovered goals", value: tagged(strings.Join(cov.Uncovered, ", "), format.TagError)})
	}
	return metricsSection("FSR Summary", "FSR Summary: "+system, fsrClause, rows)
}
