// Package aggregate derives statistics and grouped views from record sets.
//
// Every function is pure: it reads its arguments and returns a new value.
// Grouped views keyed on ASIL always enumerate D, C, B, A, QM and skip
// absent levels.
package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

// Truncation limits for identifier lists rendered into a single cell.
const (
	IDLimit            = 5
	UnallocatedIDLimit = 10
)

// ─── Grouping ───────────────────────────────────────────────────────────────

// Group is one key and the records that share it, in input order.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy partitions records by key. Keys listed in order come first, in that
// order; any other key follows in first-appearance order. A nil order keeps
// first-appearance order throughout.
func GroupBy[T any, K comparable](records []T, key func(T) K, order []K) []Group[K, T] {
	buckets := make(map[K][]T)
	var seen []K
	for _, r := range records {
		k := key(r)
		if _, ok := buckets[k]; !ok {
			seen = append(seen, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	out := make([]Group[K, T], 0, len(buckets))
	placed := make(map[K]bool, len(buckets))
	for _, k := range order {
		if items, ok := buckets[k]; ok && !placed[k] {
			out = append(out, Group[K, T]{Key: k, Items: items})
			placed[k] = true
		}
	}
	for _, k := range seen {
		if !placed[k] {
			out = append(out, Group[K, T]{Key: k, Items: buckets[k]})
			placed[k] = true
		}
	}
	return out
}

// GroupByASIL groups records by ASIL in D..QM order.
func GroupByASIL[T any](records []T, key func(T) safety.ASIL) []Group[safety.ASIL, T] {
	return GroupBy(records, key, safety.ASILOrder)
}

// ─── Distribution ───────────────────────────────────────────────────────────

// Share is one bucket of a distribution.
type Share[K comparable] struct {
	Key     K
	Count   int
	Percent float64
}

// PercentString formats the share like Percent.
func (s Share[K]) PercentString(total int) string { return Percent(s.Count, total) }

// Distribution counts records per key, ordered like GroupBy.
func Distribution[T any, K comparable](records []T, key func(T) K, order []K) []Share[K] {
	groups := GroupBy(records, key, order)
	out := make([]Share[K], len(groups))
	for i, g := range groups {
		out[i] = Share[K]{Key: g.Key, Count: len(g.Items), Percent: Ratio(len(g.Items), len(records))}
	}
	return out
}

// ASILDistribution counts records per ASIL in D..QM order.
func ASILDistribution[T any](records []T, key func(T) safety.ASIL) []Share[safety.ASIL] {
	return Distribution(records, key, safety.ASILOrder)
}

// Ratio returns count/total as a percentage rounded to one decimal.
// A zero total yields 0.
func Ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// Percent formats count/total as "33.3%". A zero total yields "0%".
func Percent(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", Ratio(count, total))
}

// ─── Coverage ───────────────────────────────────────────────────────────────

// CoverageReport maps each parent id to the children that link it.
type CoverageReport[C any] struct {
	Children  map[string][]C
	Covered   int
	Total     int
	Percent   float64
	Uncovered []string
}

// Coverage links children to parents by exact id equality. A parent counts
// as covered when at least one child lists its id. Partial or case-mismatched
// ids do not link.
func Coverage[P, C any](parents []P, children []C, parentID func(P) string, links func(C) []string) CoverageReport[C] {
	rep := CoverageReport[C]{Children: make(map[string][]C, len(parents)), Total: len(parents)}
	for _, p := range parents {
		rep.Children[parentID(p)] = nil
	}
	for _, c := range children {
		for _, id := range uniq(links(c)) {
			if _, ok := rep.Children[id]; ok {
				rep.Children[id] = append(rep.Children[id], c)
			}
		}
	}
	for _, p := range parents {
		if len(rep.Children[parentID(p)]) > 0 {
			rep.Covered++
		} else {
			rep.Uncovered = append(rep.Uncovered, parentID(p))
		}
	}
	rep.Percent = Ratio(rep.Covered, rep.Total)
	return rep
}

// GoalCoverage is Coverage specialized to safety goals and FSRs.
func GoalCoverage(goals []safety.SafetyGoal, fsrs []safety.FSR) CoverageReport[safety.FSR] {
	return Coverage(goals, fsrs,
		func(g safety.SafetyGoal) string { return g.ID },
		func(f safety.FSR) []string { return f.SafetyGoalIDs })
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ─── Severity ───────────────────────────────────────────────────────────────

// HighestSeverity returns the highest ASIL among records, or QM when empty.
func HighestSeverity[T any](records []T, key func(T) safety.ASIL) safety.ASIL {
	highest := safety.QM
	for _, r := range records {
		if a := key(r); a > highest {
			highest = a
		}
	}
	return highest
}

// DistinctASILs returns the levels present, in D..QM order.
func DistinctASILs(levels []safety.ASIL) []safety.ASIL {
	present := make(map[safety.ASIL]bool, len(levels))
	for _, l := range levels {
		present[l] = true
	}
	var out []safety.ASIL
	for _, l := range safety.ASILOrder {
		if present[l] {
			out = append(out, l)
		}
	}
	return out
}

// Risk is the freedom-from-interference tier of one allocation target.
type Risk string

const (
	RiskHigh   Risk = "HIGH"
	RiskMedium Risk = "MEDIUM"
	RiskLow    Risk = "LOW"
)

// RiskTier classifies a set of ASIL levels. Two or more distinct levels with
// C or D among them is HIGH, two or more without C/D is MEDIUM, and a single
// distinct level (whatever it is) is LOW.
func RiskTier(levels []safety.ASIL) Risk {
	distinct := DistinctASILs(levels)
	if len(distinct) < 2 {
		return RiskLow
	}
	for _, l := range distinct {
		if l.IsHigh() {
			return RiskHigh
		}
	}
	return RiskMedium
}

// ─── Truncation ─────────────────────────────────────────────────────────────

// TruncateIDs joins ids with ", ". When there are more than limit ids only
// the first limit are shown, followed by " ... (+N more)".
func TruncateIDs(ids []string, limit int) string {
	if limit <= 0 || len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(ids[:limit], ", "), len(ids)-limit)
}

// ─── Checks ─────────────────────────────────────────────────────────────────

// Check is the outcome of a count-based compliance check.
type Check string

const (
	CheckPass    Check = "PASS"
	CheckPartial Check = "PARTIAL"
	CheckFail    Check = "FAIL"
)

// CheckStatus compares an achieved count with the expected one: PASS when
// they are equal, PARTIAL from 80% of expected, FAIL below.
func CheckStatus(actual, expected int) Check {
	switch {
	case actual == expected:
		return CheckPass
	case float64(actual) >= float64(expected)*0.8:
		return CheckPartial
	default:
		return CheckFail
	}
}
