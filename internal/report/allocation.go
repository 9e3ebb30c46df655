package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

const allocationClause = "ISO 26262-3:2018 - Clause 7.4.2.8"

var allocationMatrixColumns = []column[safety.FSR]{
	{"FSR ID", 22, func(f safety.FSR) Cell { return text(f.ID) }},
	{"FSR Description", 45, func(f safety.FSR) Cell { return text(f.Description) }},
	{"FSR Type", 20, func(f safety.FSR) Cell { return text(string(f.Type)) }},
	{"ASIL", 10, func(f safety.FSR) Cell { return asilCell(f.ASIL) }},
	{"Safety Goal", 14, func(f safety.FSR) Cell { return text(strings.Join(f.SafetyGoalIDs, ", ")) }},
	{"Allocated To", 22, allocationCell},
	{"Component Type", 16, func(f safety.FSR) Cell { return text(f.ComponentType) }},
	{"Allocation Rationale", 40, func(f safety.FSR) Cell { return text(f.AllocationRationale) }},
	{"Interface Specification", 35, func(f safety.FSR) Cell { return text(f.Interface) }},
}

func componentColumns(idLimit int) []column[aggregate.ComponentRecord] {
	return []column[aggregate.ComponentRecord]{
		{"Component Name", 25, func(c aggregate.ComponentRecord) Cell { return text(c.Name) }},
		{"Component Type", 16, func(c aggregate.ComponentRecord) Cell { return text(c.ComponentType) }},
		{"FSR Count", 10, func(c aggregate.ComponentRecord) Cell { return num(c.Count()) }},
		{"ASIL Levels", 12, func(c aggregate.ComponentRecord) Cell { return text(asilLevels(c.ASILs)) }},
		{"Highest ASIL", 12, func(c aggregate.ComponentRecord) Cell { return asilCell(c.Highest) }},
		{"FSR Types", 30, func(c aggregate.ComponentRecord) Cell { return text(typeList(c.Types)) }},
		{"FSR IDs", 50, func(c aggregate.ComponentRecord) Cell {
			return text(aggregate.TruncateIDs(c.IDs(), idLimit))
		}},
	}
}

var interferenceColumns = []column[aggregate.ComponentRecord]{
	{"Component", 25, func(c aggregate.ComponentRecord) Cell { return text(c.Name) }},
	{"Component Type", 16, func(c aggregate.ComponentRecord) Cell { return text(c.ComponentType) }},
	{"ASIL Levels", 12, func(c aggregate.ComponentRecord) Cell { return text(asilLevels(c.ASILs)) }},
	{"Risk Level", 12, func(c aggregate.ComponentRecord) Cell { return tagged(string(c.Risk), format.Risk(c.Risk)) }},
	{"FSR Count", 10, func(c aggregate.ComponentRecord) Cell { return num(c.Count()) }},
	{"Interference Considerations", 60, func(c aggregate.ComponentRecord) Cell { return text(interferenceNote(c.Risk)) }},
}

var interfaceColumns = []column[safety.FSR]{
	{"FSR ID", 22, func(f safety.FSR) Cell { return text(f.ID) }},
	{"Component", 22, allocationCell},
	{"Interface Specification", 50, func(f safety.FSR) Cell { return text(f.Interface) }},
	{"ASIL", 10, func(f safety.FSR) Cell { return asilCell(f.ASIL) }},
}

type asilRow struct {
	asil        safety.ASIL
	total       int
	allocated   int
	components  []string
	compTypes   []string
	unallocated int
}

var asilColumns = []column[asilRow]{
	{"ASIL Level", 12, func(r asilRow) Cell { return asilCell(r.asil) }},
	{"Total FSRs", 10, func(r asilRow) Cell { return num(r.total) }},
	{"Allocated", 10, func(r asilRow) Cell { return num(r.allocated) }},
	{"Unallocated", 12, func(r asilRow) Cell { return Cell{Value: r.unallocated, Tag: warnIfPositive(r.unallocated)} }},
	{"Components Used", 40, func(r asilRow) Cell { return text(strings.Join(r.components, ", ")) }},
	{"Component Types", 30, func(r asilRow) Cell { return text(strings.Join(r.compTypes, ", ")) }},
}

type checkRow struct {
	label            string
	actual, expected int
}

var checkColumns = []column[checkRow]{
	{"Check Item", 35, func(r checkRow) Cell { return text(r.label) }},
	{"Status", 14, func(r checkRow) Cell {
		st := aggregate.CheckStatus(r.actual, r.expected)
		return tagged(format.Icon(format.Check(st))+" "+string(st), format.Check(st))
	}},
	{"Count", 10, func(r checkRow) Cell { return text(fmt.Sprintf("%d/%d", r.actual, r.expected)) }},
	{"Compliance", 12, func(r checkRow) Cell { return text("7.4.2.8") }},
}

func warnIfPositive(n int) format.Tag {
	if n > 0 {
		return format.TagWarning
	}
	return format.TagPlain
}

func typeList(types []safety.FSRType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func interferenceNote(r aggregate.Risk) string {
	switch r {
	case aggregate.RiskHigh:
		return "Mixed ASIL including C/D: spatial and temporal independence (partitioning) required"
	case aggregate.RiskMedium:
		return "Mixed ASIL: demonstrate freedom from interference or develop to the highest ASIL"
	default:
		return "Single ASIL level: no interference concern"
	}
}

func buildAllocation(ds safety.Dataset, opts Options) []Section {
	system := systemName(ds)
	alloc := aggregate.AllocationRecords(ds.FSRs)

	byComponent := table("By Component", "Allocation by Component: "+system, allocationClause,
		componentColumns(opts.IDLimit), alloc.Components)
	if n := len(alloc.Unallocated); n > 0 {
		row := make([]Cell, len(byComponent.Headers))
		for i := range row {
			row[i] = text("")
		}
		row[0] = tagged(safety.Unallocated, format.TagWarning)
		row[2] = Cell{Value: n, Tag: format.TagWarning}
		row[len(row)-1] = text(aggregate.TruncateIDs(fsrIDs(alloc.Unallocated), opts.UnallocatedIDLimit))
		byComponent.Rows = append(byComponent.Rows, row)
	}

	var withInterface []safety.FSR
	for _, f := range ds.FSRs {
		if strings.TrimSpace(f.Interface) != "" {
			withInterface = append(withInterface, f)
		}
	}

	return []Section{
		table("Allocation Matrix", "FSR Allocation Matrix: "+system, allocationClause, allocationMatrixColumns, ds.FSRs),
		byComponent,
		table("By ASIL", "Allocation by ASIL: "+system, allocationClause, asilColumns, asilRows(ds.FSRs)),
		table("Freedom From Interference", "Freedom From Interference: "+system, allocationClause+".b",
			interferenceColumns, alloc.Components),
		table("Interfaces", "Interface Specifications: "+system, allocationClause+".c", interfaceColumns, withInterface),
		table("Validation", "Allocation Validation: "+system, allocationClause, checkColumns, allocationChecks(alloc)),
	}
}

func asilRows(fsrs []safety.FSR) []asilRow {
	groups := aggregate.GroupByASIL(fsrs, fsrASIL)
	out := make([]asilRow, len(groups))
	for i, g := range groups {
		a := aggregate.AllocationRecords(g.Items)
		r := asilRow{asil: g.Key, total: a.Total, allocated: a.Allocated(), unallocated: len(a.Unallocated)}
		for _, c := range a.Components {
			r.components = append(r.components, c.Name)
		}
		for _, s := range aggregate.ComponentTypes(g.Items) {
			r.compTypes = append(r.compTypes, s.Key)
		}
		out[i] = r
	}
	return out
}

func allocationChecks(a aggregate.Allocation) []checkRow {
	var withRationale, withType int
	for _, c := range a.Components {
		for _, f := range c.FSRs {
			if strings.TrimSpace(f.AllocationRationale) != "" {
				withRationale++
			}
			if strings.TrimSpace(f.ComponentType) != "" {
				withType++
			}
		}
	}
	return []checkRow{
		{"All FSRs Allocated", a.Allocated(), a.Total},
		{"Allocation Rationale Provided", withRationale, a.Allocated()},
		{"Component Type Specified", withType, a.Allocated()},
	}
}

func fsrIDs(fsrs []safety.FSR) []string {
	ids := make([]string, len(fsrs))
	for i, f := range fsrs {
		ids[i] = f.ID
	}
	return ids
}

// ─── Text analysis ──────────────────────────────────────────────────────────

const rule = "================================================================================"

// AllocationAnalysis renders the plain-text allocation analysis report:
// executive summary, allocation by component, freedom-from-interference
// analysis and recommendations.
func AllocationAnalysis(ds safety.Dataset, opts Options) string {
	opts = opts.withDefaults()
	alloc := aggregate.AllocationRecords(ds.FSRs)
	var b strings.Builder

	section := func(title string) {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n\n", rule, title, rule)
	}

	fmt.Fprintf(&b, "%s\nFSR ALLOCATION ANALYSIS REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "System: %s\n", systemName(ds))
	if !opts.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", opts.Generated.Format(time.DateTime))
	}
	b.WriteString("ISO 26262-3:2018, Clause 7.4.2.8 - FSR Allocation to Architectural Elements\n")

	section("1. EXECUTIVE SUMMARY")
	fmt.Fprintf(&b, "Total FSRs: %d\n", alloc.Total)
	fmt.Fprintf(&b, "Allocated: %d (%s)\n", alloc.Allocated(), aggregate.Percent(alloc.Allocated(), alloc.Total))
	fmt.Fprintf(&b, "Unallocated: %d\n", len(alloc.Unallocated))
	fmt.Fprintf(&b, "Unique Components: %d\n", len(alloc.Components))
	b.WriteString("\nASIL Distribution:\n")
	for _, s := range aggregate.ASILDistribution(ds.FSRs, fsrASIL) {
		fmt.Fprintf(&b, "  - %s: %d FSRs\n", s.Key.Label(), s.Count)
	}

	section("2. ALLOCATION BY COMPONENT")
	for _, c := range alloc.Components {
		fmt.Fprintf(&b, "%s\n%s\n", c.Name, strings.Repeat("=", len([]rune(c.Name))))
		fmt.Fprintf(&b, "Type: %s\n", orUnknown(c.ComponentType))
		fmt.Fprintf(&b, "FSR Count: %d\n", c.Count())
		fmt.Fprintf(&b, "ASIL Levels: %s\n", asilLevels(c.ASILs))
		fmt.Fprintf(&b, "FSRs: %s\n\n", aggregate.TruncateIDs(c.IDs(), opts.IDLimit))
	}
	if len(alloc.Unallocated) > 0 {
		fmt.Fprintf(&b, "%s: %s\n", safety.Unallocated,
			aggregate.TruncateIDs(fsrIDs(alloc.Unallocated), opts.UnallocatedIDLimit))
	}

	section("3. FREEDOM FROM INTERFERENCE ANALYSIS")
	b.WriteString("Per ISO 26262-3:2018, Clause 7.4.2.8.b\n\n")
	var high []aggregate.ComponentRecord
	for _, c := range alloc.Mixed() {
		if c.Risk == aggregate.RiskHigh {
			high = append(high, c)
		}
	}
	if len(high) == 0 {
		b.WriteString("✅ No high-risk ASIL mixing detected\n")
	} else {
		b.WriteString("⚠️ HIGH RISK COMPONENTS (Mixed ASIL including C/D):\n\n")
		for _, c := range high {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Name, asilLevels(c.ASILs))
			b.WriteString("    → Requires spatial/temporal independence and partitioning\n\n")
		}
	}
	for _, c := range alloc.Mixed() {
		if c.Risk == aggregate.RiskMedium {
			fmt.Fprintf(&b, "  - %s: %s (MEDIUM)\n", c.Name, asilLevels(c.ASILs))
		}
	}

	section("4. RECOMMENDATIONS")
	n := 1
	rec := func(msg string, args ...any) {
		fmt.Fprintf(&b, "%d. %s\n", n, fmt.Sprintf(msg, args...))
		n++
	}
	if len(alloc.Unallocated) > 0 {
		rec("Complete allocation for %d unallocated FSRs", len(alloc.Unallocated))
	}
	if len(high) > 0 {
		rec("Implement freedom from interference measures for %d high-risk components", len(high))
	}
	rec("Define interface specifications per ISO 26262-3:2018, Clause 7.4.2.8.c")
	rec("Verify ASIL integrity per ISO 26262-3:2018, Clause 7.4.2.8.a")
	rec("Document allocation rationale for all FSRs")

	fmt.Fprintf(&b, "\n%s\nEND OF REPORT\n%s\n", rule, rule)
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
