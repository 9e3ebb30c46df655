// Package validate checks parsed record sets for completeness before any
// document is assembled.
//
// Errors block document generation (a required record set is empty).
// Warnings never block: duplicate ids, dangling references, partial
// allocation, ASIL mixing and similar gaps are reported alongside the
// output. Referential integrity is advisory: partial documents are valid,
// just incomplete.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

// DefaultSoftThreshold is the allocation ratio from which an incomplete
// allocation is reported as a warning.
const DefaultSoftThreshold = 0.8

// Category orders warnings in the output.
type Category int

const (
	CatDuplicate Category = iota
	CatReference
	CatCoverage
	CatASIL
	CatAllocation
	CatInterference
	CatTypeCoverage
	CatStatus
)

// Result is the validator's verdict. Warnings and Errors are sorted so the
// output does not depend on input record order.
type Result struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// Options tunes the FSR checks.
type Options struct {
	// SoftThreshold is the allocated fraction (0..1) from which partial
	// allocation is warned about. Zero means DefaultSoftThreshold.
	SoftThreshold float64
}

func (o Options) softThreshold() float64 {
	if o.SoftThreshold <= 0 || o.SoftThreshold > 1 {
		return DefaultSoftThreshold
	}
	return o.SoftThreshold
}

type issue struct {
	cat Category
	msg string
}

type collector struct {
	warnings []issue
	errors   []string
}

func (c *collector) warn(cat Category, format string, args ...any) {
	c.warnings = append(c.warnings, issue{cat: cat, msg: fmt.Sprintf(format, args...)})
}

func (c *collector) fail(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *collector) result() Result {
	sort.SliceStable(c.warnings, func(i, j int) bool {
		if c.warnings[i].cat != c.warnings[j].cat {
			return c.warnings[i].cat < c.warnings[j].cat
		}
		return c.warnings[i].msg < c.warnings[j].msg
	})
	sort.Strings(c.errors)
	r := Result{Valid: len(c.errors) == 0, Warnings: []string{}, Errors: []string{}}
	for _, w := range c.warnings {
		r.Warnings = append(r.Warnings, w.msg)
	}
	r.Errors = append(r.Errors, c.errors...)
	return r
}

// duplicates reports every id that occurs more than once.
func (c *collector) duplicates(kind string, ids []string) {
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	for id, n := range counts {
		if n > 1 {
			c.warn(CatDuplicate, "Duplicate %s ID %s (%d occurrences)", kind, id, n)
		}
	}
}

// --- FSRs ---

// FSRs validates a requirement set against its safety goals.
func FSRs(goals []safety.SafetyGoal, fsrs []safety.FSR, opts Options) Result {
	c := &collector{}
	if len(goals) == 0 {
		c.fail("No safety goals available")
	}
	if len(fsrs) == 0 {
		c.fail("No FSRs available")
	}

	goalIDs := make([]string, len(goals))
	goalByID := make(map[string]safety.SafetyGoal, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
		goalByID[g.ID] = g
	}
	fsrIDs := make([]string, len(fsrs))
	for i, f := range fsrs {
		fsrIDs[i] = f.ID
	}
	c.duplicates("safety goal", goalIDs)
	c.duplicates("FSR", fsrIDs)

	if len(fsrs) == 0 {
		return c.result()
	}

	for _, f := range fsrs {
		if len(f.SafetyGoalIDs) == 0 {
			c.warn(CatReference, "FSR %s is not linked to any safety goal", f.ID)
			continue
		}
		for _, gid := range f.SafetyGoalIDs {
			if _, ok := goalByID[gid]; !ok {
				c.warn(CatReference, "FSR %s references unknown safety goal %s", f.ID, gid)
			}
		}
		if parent, ok := goalByID[f.SafetyGoalIDs[0]]; ok && parent.ASIL != f.ASIL {
			c.warn(CatASIL, "FSR %s is %s but safety goal %s is %s; document the ASIL decomposition",
				f.ID, f.ASIL.Label(), parent.ID, parent.ASIL.Label())
		}
	}

	cov := aggregate.GoalCoverage(goals, fsrs)
	for _, g := range goals {
		if len(cov.Children[g.ID]) == 0 {
			c.warn(CatCoverage, "Safety goal %s has no linked FSRs", g.ID)
		}
	}

	allocated := 0
	for _, f := range fsrs {
		if f.Allocated() {
			allocated++
		}
	}
	ratio := float64(allocated) / float64(len(fsrs))
	switch threshold := opts.softThreshold(); {
	case ratio >= 1:
	case ratio >= threshold:
		c.warn(CatAllocation, "Allocation incomplete: %d of %d FSRs allocated (%s)",
			allocated, len(fsrs), aggregate.Percent(allocated, len(fsrs)))
	default:
		c.warn(CatAllocation, "Allocation incomplete: %d of %d FSRs allocated (%s), below the %.0f%% threshold",
			allocated, len(fsrs), aggregate.Percent(allocated, len(fsrs)), threshold*100)
	}

	for _, rec := range aggregate.AllocationRecords(fsrs).Components {
		tier := aggregate.RiskTier(rec.ASILs)
		if tier == aggregate.RiskLow {
			continue
		}
		c.warn(CatInterference, "%s risk: %s mixes %s; freedom from interference required",
			tier, rec.Name, joinASILs(rec.ASILs))
	}

	if counts, _ := aggregate.TypeCoverage(fsrs); counts[safety.FamilyDetection] == 0 {
		c.warn(CatTypeCoverage, "No detection-type FSR present")
	}

	return c.result()
}

func joinASILs(levels []safety.ASIL) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

// --- Hazards ---

// Hazards validates a HARA entry set.
func Hazards(hazards []safety.HazardEntry) Result {
	c := &collector{}
	if len(hazards) == 0 {
		c.fail("No HARA entries available")
		return c.result()
	}
	ids := make([]string, len(hazards))
	for i, h := range hazards {
		ids[i] = h.ID
		if strings.TrimSpace(h.SafetyGoal) == "" || h.SafetyGoal == safety.NotAvailable {
			if h.ASIL != safety.QM {
				c.warn(CatCoverage, "Hazard %s is %s but has no safety goal", h.ID, h.ASIL.Label())
			}
		}
	}
	c.duplicates("hazard", ids)
	return c.result()
}

// --- Reviews ---

// Reviews validates a review finding set.
func Reviews(findings []safety.ReviewFinding) Result {
	c := &collector{}
	if len(findings) == 0 {
		c.fail("No review items available")
		return c.result()
	}
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.ID
		if f.Status == safety.StatusUnknown {
			c.warn(CatStatus, "Review item %s has no recognized status", f.ID)
		}
	}
	c.duplicates("review item", ids)
	return c.result()
}

// --- Mechanisms ---

// Mechanisms checks mechanism cross references. It never produces errors:
// a concept without mechanisms is incomplete, not invalid.
func Mechanisms(mechanisms []safety.SafetyMechanism, fsrs []safety.FSR) Result {
	c := &collector{}
	if len(mechanisms) == 0 {
		return c.result()
	}
	known := make(map[string]bool, len(fsrs))
	for _, f := range fsrs {
		known[f.ID] = true
	}
	ids := make([]string, len(mechanisms))
	covered := make(map[string]bool)
	for i, m := range mechanisms {
		ids[i] = m.ID
		for _, id := range m.CoveredFSRs {
			covered[id] = true
			if !known[id] {
				c.warn(CatReference, "Safety mechanism %s covers unknown FSR %s", m.ID, id)
			}
		}
	}
	c.duplicates("safety mechanism", ids)
	for _, f := range fsrs {
		if !covered[f.ID] {
			c.warn(CatCoverage, "FSR %s is not covered by any safety mechanism", f.ID)
		}
	}
	return c.result()
}

// Merge combines results: valid only if all are valid, warnings and errors
// concatenated in argument order.
func Merge(results ...Result) Result {
	out := Result{Valid: true, Warnings: []string{}, Errors: []string{}}
	for _, r := range results {
		out.Valid = out.Valid && r.Valid
		out.Warnings = append(out.Warnings, r.Warnings...)
		out.Errors = append(out.Errors, r.Errors...)
	}
	return out
}
