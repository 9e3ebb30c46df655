package aggregate

import (
	"sort"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

// ComponentRecord is the allocation view of one target: every FSR allocated
// to it and what they imply.
type ComponentRecord struct {
	Name          string
	ComponentType string
	FSRs          []safety.FSR
	ASILs         []safety.ASIL
	Types         []safety.FSRType
	Highest       safety.ASIL
	Risk          Risk
}

// Count is the number of FSRs allocated to the component.
func (c ComponentRecord) Count() int { return len(c.FSRs) }

// IDs returns the FSR identifiers in allocation order.
func (c ComponentRecord) IDs() []string { return fsrIDs(c.FSRs) }

// Allocation groups a requirement set by allocation target.
type Allocation struct {
	Components  []ComponentRecord
	Unallocated []safety.FSR
	Total       int
}

// Allocated is the number of FSRs with a real target.
func (a Allocation) Allocated() int { return a.Total - len(a.Unallocated) }

// Percent is the allocated share rounded to one decimal.
func (a Allocation) Percent() float64 { return Ratio(a.Allocated(), a.Total) }

// Mixed returns the components whose risk tier is above LOW.
func (a Allocation) Mixed() []ComponentRecord {
	var out []ComponentRecord
	for _, c := range a.Components {
		if c.Risk != RiskLow {
			out = append(out, c)
		}
	}
	return out
}

// AllocationRecords groups fsrs by allocation target. Components are sorted
// by FSR count descending, then name; FSRs without a target are listed in
// Unallocated.
func AllocationRecords(fsrs []safety.FSR) Allocation {
	out := Allocation{Total: len(fsrs)}
	var allocated []safety.FSR
	for _, f := range fsrs {
		if f.Allocated() {
			allocated = append(allocated, f)
		} else {
			out.Unallocated = append(out.Unallocated, f)
		}
	}

	groups := GroupBy(allocated, func(f safety.FSR) string { return strings.TrimSpace(f.AllocatedTo) }, nil)
	for _, g := range groups {
		rec := ComponentRecord{Name: g.Key, FSRs: g.Items}
		levels := make([]safety.ASIL, len(g.Items))
		seenType := make(map[safety.FSRType]bool)
		for i, f := range g.Items {
			levels[i] = f.ASIL
			if rec.ComponentType == "" {
				rec.ComponentType = f.ComponentType
			}
			if !seenType[f.Type] {
				seenType[f.Type] = true
				rec.Types = append(rec.Types, f.Type)
			}
		}
		rec.ASILs = DistinctASILs(levels)
		rec.Highest = safety.MaxASIL(levels...)
		rec.Risk = RiskTier(levels)
		out.Components = append(out.Components, rec)
	}
	sort.SliceStable(out.Components, func(i, j int) bool {
		ci, cj := out.Components[i], out.Components[j]
		if ci.Count() != cj.Count() {
			return ci.Count() > cj.Count()
		}
		return ci.Name < cj.Name
	})
	return out
}

// ComponentTypes counts allocated FSRs per component type in first-appearance
// order. A blank type counts as "Unspecified".
func ComponentTypes(fsrs []safety.FSR) []Share[string] {
	var allocated []safety.FSR
	for _, f := range fsrs {
		if f.Allocated() {
			allocated = append(allocated, f)
		}
	}
	return Distribution(allocated, func(f safety.FSR) string {
		if t := strings.TrimSpace(f.ComponentType); t != "" {
			return t
		}
		return "Unspecified"
	}, nil)
}

func fsrIDs(fsrs []safety.FSR) []string {
	ids := make([]string, len(fsrs))
	for i, f := range fsrs {
		ids[i] = f.ID
	}
	return ids
}
