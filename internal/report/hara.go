package report

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

const haraClause = "ISO 26262-3:2018 - Clause 6"

var hazardColumns = []column[safety.HazardEntry]{
	{"Hazard ID", 12, func(h safety.HazardEntry) Cell { return text(h.ID) }},
	{"Function", 20, func(h safety.HazardEntry) Cell { return text(h.Function) }},
	{"Malfunctioning Behavior", 25, func(h safety.HazardEntry) Cell { return text(h.Malfunction) }},
	{"Hazardous Event", 30, func(h safety.HazardEntry) Cell { return text(h.Hazard) }},
	{"Operational Situation", 25, func(h safety.HazardEntry) Cell { return text(h.Situation) }},
	{"Severity (S)", 12, func(h safety.HazardEntry) Cell { return text(h.Severity) }},
	{"Exposure (E)", 12, func(h safety.HazardEntry) Cell { return text(h.Exposure) }},
	{"Controllability (C)", 14, func(h safety.HazardEntry) Cell { return text(h.Controllability) }},
	{"ASIL", 10, func(h safety.HazardEntry) Cell { return asilCell(h.ASIL) }},
	{"Safety Goal", 35, func(h safety.HazardEntry) Cell { return text(h.SafetyGoal) }},
	{"Safe State", 25, func(h safety.HazardEntry) Cell { return text(h.SafeState) }},
	{"FTTI", 12, func(h safety.HazardEntry) Cell { return text(h.FTTI) }},
}

var goalSummaryColumns = []column[aggregate.GoalSummary]{
	{"Safety Goal", 60, func(g aggregate.GoalSummary) Cell { return text(g.Goal) }},
	{"Maximum ASIL", 15, func(g aggregate.GoalSummary) Cell { return asilCell(g.ASIL) }},
	{"Occurrences", 12, func(g aggregate.GoalSummary) Cell { return num(g.Occurrences) }},
}

// rating classes in display order, highest first.
var (
	severityClasses        = []string{"S3", "S2", "S1", "S0"}
	exposureClasses        = []string{"E4", "E3", "E2", "E1", "E0"}
	controllabilityClasses = []string{"C3", "C2", "C1", "C0"}
)

const unrated = "Unrated"

// ratingClass finds the first class token contained in raw ("S3 - fatal"
// → "S3").
func ratingClass(raw string, classes []string) string {
	up := strings.ToUpper(raw)
	for _, c := range classes {
		if strings.Contains(up, c) {
			return c
		}
	}
	return unrated
}

func buildHARA(ds safety.Dataset, _ Options) []Section {
	system := systemName(ds)
	return []Section{
		haraSummary(system, ds.Hazards),
		table("Safety Goals Summary", "Safety Goals Summary: "+system, haraClause,
			goalSummaryColumns, aggregate.GoalSummaries(ds.Hazards)),
		table("HARA Table", "HARA Table: "+system, haraClause, hazardColumns, ds.Hazards),
	}
}

func haraSummary(system string, hazards []safety.HazardEntry) Section {
	total := len(hazards)
	rows := []metric{{label: "Total Hazards", value: num(total)}}

	rows = append(rows, heading("ASIL Distribution"))
	for _, s := range aggregate.ASILDistribution(hazards, func(h safety.HazardEntry) safety.ASIL { return h.ASIL }) {
		rows = append(rows, metric{label: s.Key.Label(), value: Cell{Value: s.Count, Tag: format.ASIL(s.Key)}, share: s.PercentString(total)})
	}

	ratings := []struct {
		title   string
		classes []string
		field   func(safety.HazardEntry) string
	}{
		{"Severity Distribution", severityClasses, func(h safety.HazardEntry) string { return h.Severity }},
		{"Exposure Distribution", exposureClasses, func(h safety.HazardEntry) string { return h.Exposure }},
		{"Controllability Distribution", controllabilityClasses, func(h safety.HazardEntry) string { return h.Controllability }},
	}
	for _, r := range ratings {
		rows = append(rows, heading(r.title))
		key := func(h safety.HazardEntry) string { return ratingClass(r.field(h), r.classes) }
		for _, s := range aggregate.Distribution(hazards, key, append(append([]string{}, r.classes...), unrated)) {
			rows = append(rows, metric{label: s.Key, value: num(s.Count), share: s.PercentString(total)})
		}
	}

	rows = append(rows, heading("Compliance (ISO 26262-3:2018)"))
	for _, c := range haraCompliance(hazards) {
		status := aggregate.CheckStatus(c.actual, c.expected)
		rows = append(rows, metric{
			label: c.label,
			value: tagged(fmt.Sprintf("%s %s", format.Icon(format.Check(status)), status), format.Check(status)),
			share: fmt.Sprintf("%d/%d", c.actual, c.expected),
		})
	}
	return metricsSection("Summary", "HARA Summary: "+system, haraClause, rows)
}

type complianceItem struct {
	label            string
	actual, expected int
}

func haraCompliance(hazards []safety.HazardEntry) []complianceItem {
	var identified, rated, determined, withGoal, needGoal int
	for _, h := range hazards {
		if strings.TrimSpace(h.Situation) != "" {
			identified++
		}
		sev := ratingClass(h.Severity, severityClasses)
		exp := ratingClass(h.Exposure, exposureClasses)
		ctl := ratingClass(h.Controllability, controllabilityClasses)
		if sev != unrated && exp != unrated && ctl != unrated {
			rated++
			if determineASIL(sev, exp, ctl) == h.ASIL {
				determined++
			}
		}
		if h.ASIL != safety.QM {
			needGoal++
			if hasText(h.SafetyGoal) {
				withGoal++
			}
		}
	}
	total := len(hazards)
	return []complianceItem{
		{"6.4.3 Hazardous events identified", identified, total},
		{"6.4.4 Hazardous events classified (S/E/C)", rated, total},
		{"6.4.5 ASIL determined from S/E/C", determined, rated},
		{"6.4.6 Safety goals determined", withGoal, needGoal},
	}
}

// determineASIL applies the ISO 26262-3 Table 4 rule to rating classes such
// as "S3", "E4", "C3": any class 0 gives QM, otherwise the sum of the
// numbers maps 10→D, 9→C, 8→B, 7→A and lower to QM.
func determineASIL(sev, exp, ctl string) safety.ASIL {
	s, e, c := classLevel(sev), classLevel(exp), classLevel(ctl)
	if s == 0 || e == 0 || c == 0 {
		return safety.QM
	}
	switch s + e + c {
	case 10:
		return safety.ASILD
	case 9:
		return safety.ASILC
	case 8:
		return safety.ASILB
	case 7:
		return safety.ASILA
	default:
		return safety.QM
	}
}

// classLevel is the digit of a rating class ("E4" → 4).
func classLevel(class string) int {
	return int(class[len(class)-1] - '0')
}

func hasText(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != safety.NotAvailable
}
