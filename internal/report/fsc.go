package report

import (
	"strings"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

type goalRow struct {
	goal safety.SafetyGoal
	fsrs []safety.FSR
}

func fsrCountCell(r goalRow) Cell {
	return Cell{Value: len(r.fsrs), Tag: format.Covered(len(r.fsrs) > 0)}
}

var goalColumns = []column[goalRow]{
	{"SG-ID", 10, func(r goalRow) Cell { return text(r.goal.ID) }},
	{"Safety Goal", 50, func(r goalRow) Cell { return text(r.goal.Statement) }},
	{"ASIL", 10, func(r goalRow) Cell { return asilCell(r.goal.ASIL) }},
	{"Safe State", 30, func(r goalRow) Cell { return text(r.goal.SafeState) }},
	{"FTTI", 12, func(r goalRow) Cell { return text(r.goal.FTTI) }},
	{"FSR Count", 10, fsrCountCell},
}

func traceColumns(idLimit int) []column[goalRow] {
	return []column[goalRow]{
		{"Safety Goal ID", 14, func(r goalRow) Cell { return text(r.goal.ID) }},
		{"Safety Goal", 50, func(r goalRow) Cell { return text(r.goal.Statement) }},
		{"ASIL", 10, func(r goalRow) Cell { return asilCell(r.goal.ASIL) }},
		{"FSR IDs", 50, func(r goalRow) Cell { return text(aggregate.TruncateIDs(fsrIDs(r.fsrs), idLimit)) }},
		{"FSR Count", 10, fsrCountCell},
	}
}

var fscRequirementColumns = []column[safety.FSR]{
	{"FSR-ID", 22, func(f safety.FSR) Cell { return text(f.ID) }},
	{"Description", 50, func(f safety.FSR) Cell { return text(f.Description) }},
	{"Type", 20, func(f safety.FSR) Cell { return text(string(f.Type)) }},
	{"ASIL", 10, func(f safety.FSR) Cell { return asilCell(f.ASIL) }},
	{"Parent SG", 14, func(f safety.FSR) Cell { return text(strings.Join(f.SafetyGoalIDs, ", ")) }},
	{"Allocated To", 22, allocationCell},
	{"FHTI", 12, func(f safety.FSR) Cell { return text(f.Timing) }},
	{"Safe State", 25, func(f safety.FSR) Cell { return text(f.SafeState) }},
	{"Verification Criteria", 40, func(f safety.FSR) Cell { return text(f.Verification) }},
}

func mechanismColumns(idLimit int) []column[safety.SafetyMechanism] {
	return []column[safety.SafetyMechanism]{
		{"SM-ID", 10, func(m safety.SafetyMechanism) Cell { return text(m.ID) }},
		{"Name", 30, func(m safety.SafetyMechanism) Cell { return text(m.Name) }},
		{"Category", 14, func(m safety.SafetyMechanism) Cell { return text(titleCase(string(m.Category))) }},
		{"Description", 45, func(m safety.SafetyMechanism) Cell { return text(m.Description) }},
		{"Diagnostic Coverage", 14, func(m safety.SafetyMechanism) Cell { return text(m.DiagnosticCoverage) }},
		{"ASIL", 10, func(m safety.SafetyMechanism) Cell { return text(asilLevels(aggregate.DistinctASILs(m.ASILs))) }},
		{"Covered FSRs", 45, func(m safety.SafetyMechanism) Cell { return text(aggregate.TruncateIDs(m.CoveredFSRs, idLimit)) }},
	}
}

func buildFSC(ds safety.Dataset, opts Options) []Section {
	system := systemName(ds)
	cov := aggregate.GoalCoverage(ds.Goals, ds.FSRs)
	goals := make([]goalRow, len(ds.Goals))
	for i, g := range ds.Goals {
		goals[i] = goalRow{goal: g, fsrs: cov.Children[g.ID]}
	}

	mechs := aggregate.GroupBy(ds.Mechanisms,
		func(m safety.SafetyMechanism) safety.MechanismCategory { return m.Category },
		safety.MechanismCategories)
	var ordered []safety.SafetyMechanism
	for _, g := range mechs {
		ordered = append(ordered, g.Items...)
	}

	alloc := aggregate.AllocationRecords(ds.FSRs)
	allocCols := componentColumns(opts.IDLimit)
	allocCols = []column[aggregate.ComponentRecord]{allocCols[0], allocCols[2], allocCols[3], allocCols[6]}

	return []Section{
		table("Safety Goals", "Safety Goals: "+system, fsrClause, goalColumns, goals),
		table("Functional Safety Requirements", "Functional Safety Requirements: "+system, fsrClause,
			fscRequirementColumns, ds.FSRs),
		table("Safety Mechanisms", "Safety Mechanisms: "+system, fsrClause, mechanismColumns(opts.IDLimit), ordered),
		table("Traceability", "Safety Goal to FSR Traceability: "+system, fsrClause, traceColumns(opts.IDLimit), goals),
		mechanismCoverage(system, ds.FSRs, ordered),
		table("Allocation Matrix", "Architectural Allocation: "+system, allocationClause, allocCols, alloc.Components),
		fscStatistics(system, ds, alloc),
	}
}

// mechanismCoverage renders the FSR × mechanism traceability matrix.
func mechanismCoverage(system string, fsrs []safety.FSR, mechs []safety.SafetyMechanism) Section {
	m := aggregate.TraceabilityMatrix(fsrs, mechs)
	s := Section{
		Name:     "Mechanism Coverage",
		Title:    "FSR to Safety Mechanism Traceability: " + system,
		Subtitle: fsrClause,
		Headers:  append([]string{"FSR ID"}, m.MechanismIDs...),
		Freeze:   true,
	}
	s.Headers = append(s.Headers, "Covered")
	s.Widths = make([]float64, len(s.Headers))
	s.Widths[0] = 22
	for i, id := range m.FSRIDs {
		row := []Cell{text(id)}
		covered := false
		for _, hit := range m.Cells[i] {
			if hit {
				row = append(row, tagged("✓", format.TagOK))
				covered = true
			} else {
				row = append(row, text(""))
			}
		}
		label := "No"
		if covered {
			label = "Yes"
		}
		row = append(row, tagged(label, format.Covered(covered)))
		s.Rows = append(s.Rows, row)
	}
	return s
}

func fscStatistics(system string, ds safety.Dataset, alloc aggregate.Allocation) Section {
	total := len(ds.FSRs)
	cov := aggregate.GoalCoverage(ds.Goals, ds.FSRs)
	trace := aggregate.TraceabilityMatrix(ds.FSRs, ds.Mechanisms)

	rows := []metric{
		{label: "Total Safety Goals", value: num(len(ds.Goals))},
		{label: "Total FSRs", value: num(total)},
		{label: "Total Safety Mechanisms", value: num(len(ds.Mechanisms))},
		heading("ASIL Distribution"),
	}
	for _, s := range aggregate.ASILDistribution(ds.FSRs, fsrASIL) {
		rows = append(rows, metric{label: s.Key.Label(), value: Cell{Value: s.Count, Tag: format.ASIL(s.Key)}, share: s.PercentString(total)})
	}
	rows = append(rows, heading("FSR Type Distribution"))
	for _, s := range aggregate.Distribution(ds.FSRs, fsrType, typeOrder()) {
		rows = append(rows, metric{label: string(s.Key), value: num(s.Count), share: s.PercentString(total)})
	}
	covered := total - len(trace.Uncovered)
	rows = append(rows,
		heading("Allocation Status"),
		metric{label: "Allocated FSRs", value: num(alloc.Allocated()), share: aggregate.Percent(alloc.Allocated(), total)},
		metric{label: "Unallocated FSRs", value: Cell{Value: len(alloc.Unallocated), Tag: warnIfPositive(len(alloc.Unallocated))}},
		heading("Coverage"),
		metric{label: "Safety goals with FSRs", value: num(cov.Covered), share: aggregate.Percent(cov.Covered, cov.Total)},
		metric{label: "FSRs covered by mechanisms", value: Cell{Value: covered, Tag: format.Covered(covered == total)}, share: aggregate.Percent(covered, total)},
	)
	return metricsSection("Statistics", "FSC Statistics Summary: "+system, fsrClause, rows)
}
