package report

import (
	"fmt"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

var reviewColumns = []column[safety.ReviewFinding]{
	{"ID", 10, func(f safety.ReviewFinding) Cell { return text(f.ID) }},
	{"Category", 25, func(f safety.ReviewFinding) Cell { return text(f.Category) }},
	{"Requirement", 35, func(f safety.ReviewFinding) Cell { return text(joinNonEmpty(" ", f.Requirement, clauseRef(f.ISOClause))) }},
	{"Description", 45, func(f safety.ReviewFinding) Cell { return text(f.Description) }},
	{"Status", 14, statusCell},
	{"Comment", 40, func(f safety.ReviewFinding) Cell { return text(f.Comment) }},
	{"Hint for Improvement", 40, func(f safety.ReviewFinding) Cell { return text(f.Hint) }},
}

var categoryColumns = []column[aggregate.CategoryCount]{
	{"Category", 35, func(c aggregate.CategoryCount) Cell { return text(c.Category) }},
	{"Total", 8, func(c aggregate.CategoryCount) Cell { return num(c.Total) }},
	{"Pass", 8, func(c aggregate.CategoryCount) Cell { return Cell{Value: c.Pass, Tag: format.TagOK} }},
	{"Fail", 8, func(c aggregate.CategoryCount) Cell { return Cell{Value: c.Fail, Tag: failTag(c.Fail)} }},
	{"Partial", 8, func(c aggregate.CategoryCount) Cell { return num(c.Partial) }},
	{"N/A", 8, func(c aggregate.CategoryCount) Cell { return num(c.NotApplicable) }},
	{"Compliance %", 14, func(c aggregate.CategoryCount) Cell {
		return tagged(fmt.Sprintf("%.1f%%", c.Compliance), format.Assessment(c.Assessment))
	}},
}

func statusCell(f safety.ReviewFinding) Cell {
	label := string(f.Status)
	if f.Status == safety.StatusUnknown {
		label = f.RawStatus
	}
	return tagged(label, format.Status(f.Status))
}

func failTag(n int) format.Tag {
	if n > 0 {
		return format.TagError
	}
	return format.TagPlain
}

func clauseRef(clause string) string {
	if clause == "" {
		return ""
	}
	return "(" + clause + ")"
}

var reviewSubtitles = map[safety.ReviewKind]string{
	safety.ReviewHARA:           "ISO 26262-3:2018 - Clause 6 review",
	safety.ReviewItemDefinition: "ISO 26262-3:2018 - Clause 5 review",
}

var reviewSheetNames = map[safety.ReviewKind]string{
	safety.ReviewHARA:           "HARA Review Results",
	safety.ReviewItemDefinition: "Review Results",
}

func buildReview(kind safety.ReviewKind, ds safety.Dataset, _ Options) []Section {
	system := systemName(ds)
	findings := ds.Reviews[kind]
	sub := reviewSubtitles[kind]
	name := reviewSheetNames[kind]

	return []Section{
		table(name, name+": "+system, sub, reviewColumns, findings),
		reviewSummary(system, sub, aggregate.ReviewSummary(findings)),
		table("Category Breakdown", "Category Breakdown: "+system, sub,
			categoryColumns, aggregate.CategoryBreakdown(findings)),
	}
}

func reviewSummary(system, subtitle string, s aggregate.ReviewStats) Section {
	share := func(n int) string { return aggregate.Percent(n, s.Total) }
	rows := []metric{
		{label: "Total Items", value: num(s.Total)},
		{label: "Pass", value: Cell{Value: s.Pass, Tag: format.TagOK}, share: share(s.Pass)},
		{label: "Fail", value: Cell{Value: s.Fail, Tag: format.TagError}, share: share(s.Fail)},
		{label: "Partial Pass", value: Cell{Value: s.Partial, Tag: format.TagWarning}, share: share(s.Partial)},
		{label: "Not Applicable", value: Cell{Value: s.NotApplicable, Tag: format.TagNeutral}, share: share(s.NotApplicable)},
	}
	if s.Unknown > 0 {
		rows = append(rows, metric{label: "Unrecognized Status", value: num(s.Unknown), share: share(s.Unknown)})
	}
	tag := format.Assessment(s.Assessment)
	rows = append(rows,
		metric{label: "Applicable Items", value: num(s.Applicable)},
		metric{label: "Compliance Rate", value: tagged(fmt.Sprintf("%.1f%%", s.Compliance), tag)},
		metric{label: "Assessment", value: tagged(fmt.Sprintf("%s %s", format.Icon(tag), s.Assessment), tag)},
	)
	return metricsSection("Summary", "Review Summary: "+system, subtitle, rows)
}
