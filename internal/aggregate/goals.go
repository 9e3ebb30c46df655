package aggregate

import (
	"sort"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

// GoalSummary is one unique safety goal as it appears across a HARA.
type GoalSummary struct {
	Goal        string
	ASIL        safety.ASIL
	Occurrences int
	HazardIDs   []string
}

// GoalSummaries collapses hazard entries onto their unique goal text, keeping
// the highest ASIL. Entries without a goal are skipped. The result is sorted
// by ASIL, highest first, ties in first-appearance order.
func GoalSummaries(hazards []safety.HazardEntry) []GoalSummary {
	var withGoal []safety.HazardEntry
	for _, h := range hazards {
		g := strings.TrimSpace(h.SafetyGoal)
		if g != "" && g != safety.NotAvailable {
			withGoal = append(withGoal, h)
		}
	}
	groups := GroupBy(withGoal, func(h safety.HazardEntry) string { return strings.TrimSpace(h.SafetyGoal) }, nil)
	out := make([]GoalSummary, len(groups))
	for i, g := range groups {
		s := GoalSummary{Goal: g.Key, Occurrences: len(g.Items)}
		for _, h := range g.Items {
			s.HazardIDs = append(s.HazardIDs, h.ID)
		}
		s.ASIL = HighestSeverity(g.Items, func(h safety.HazardEntry) safety.ASIL { return h.ASIL })
		out[i] = s
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ASIL > out[j].ASIL })
	return out
}

// TypeCoverage counts FSRs per type family and lists the families missing
// from the set (detection, reaction, indication).
func TypeCoverage(fsrs []safety.FSR) (counts map[safety.TypeFamily]int, missing []safety.TypeFamily) {
	counts = make(map[safety.TypeFamily]int)
	for _, f := range fsrs {
		counts[f.Type.Family()]++
	}
	for _, fam := range []safety.TypeFamily{safety.FamilyDetection, safety.FamilyReaction, safety.FamilyIndication} {
		if counts[fam] == 0 {
			missing = append(missing, fam)
		}
	}
	return counts, missing
}

// Traceability is the FSR × mechanism coverage matrix.
type Traceability struct {
	FSRIDs       []string
	MechanismIDs []string
	// Cells[i][j] reports whether mechanism j covers FSR i.
	Cells [][]bool
	// Uncovered lists FSRs no mechanism covers.
	Uncovered []string
}

// TraceabilityMatrix builds the FSR × mechanism matrix in input order.
func TraceabilityMatrix(fsrs []safety.FSR, mechanisms []safety.SafetyMechanism) Traceability {
	t := Traceability{FSRIDs: fsrIDs(fsrs), Cells: make([][]bool, len(fsrs))}
	for _, m := range mechanisms {
		t.MechanismIDs = append(t.MechanismIDs, m.ID)
	}
	for i, f := range fsrs {
		row := make([]bool, len(mechanisms))
		covered := false
		for j, m := range mechanisms {
			row[j] = m.Covers(f.ID)
			covered = covered || row[j]
		}
		t.Cells[i] = row
		if !covered {
			t.Uncovered = append(t.Uncovered, f.ID)
		}
	}
	return t
}
