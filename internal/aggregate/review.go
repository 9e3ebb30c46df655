package aggregate

import (
	"strings"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

// ChecklistCategories is the document order of review categories.
var ChecklistCategories = []string{
	"Identification and Classification",
	"Functional Description",
	"Safety-Related Attributes",
	"Dependencies and Interactions",
	"System Boundaries and Context",
	"Review and Approval",
	"General Requirements",
}

// Assessment bands for review compliance.
const (
	AssessExcellent = "Excellent"
	AssessGood      = "Good"
	AssessFair      = "Fair"
	AssessPoor      = "Poor"
)

// ReviewStats summarizes one review.
type ReviewStats struct {
	Total         int
	Pass          int
	Fail          int
	Partial       int
	NotApplicable int
	Unknown       int
	// Applicable is Total minus NotApplicable.
	Applicable int
	// Compliance is Pass / Applicable as a percentage; 0 when nothing applies.
	Compliance float64
	Assessment string
}

// ReviewSummary counts statuses and derives the compliance rate.
func ReviewSummary(findings []safety.ReviewFinding) ReviewStats {
	s := ReviewStats{Total: len(findings)}
	for _, f := range findings {
		switch f.Status {
		case safety.StatusPass:
			s.Pass++
		case safety.StatusFail:
			s.Fail++
		case safety.StatusPartial:
			s.Partial++
		case safety.StatusNotApplicable:
			s.NotApplicable++
		default:
			s.Unknown++
		}
	}
	s.Applicable = s.Total - s.NotApplicable
	s.Compliance = Ratio(s.Pass, s.Applicable)
	s.Assessment = Assess(s.Compliance)
	return s
}

// Assess maps a compliance percentage onto its band.
func Assess(compliance float64) string {
	switch {
	case compliance >= 90:
		return AssessExcellent
	case compliance >= 70:
		return AssessGood
	case compliance >= 50:
		return AssessFair
	default:
		return AssessPoor
	}
}

// CategoryCount is the status breakdown of one review category.
type CategoryCount struct {
	Category string
	ReviewStats
}

// CategoryBreakdown summarizes findings per category. Known checklist
// categories come first in checklist order; others follow in first-appearance
// order. Category names match case-insensitively.
func CategoryBreakdown(findings []safety.ReviewFinding) []CategoryCount {
	canonical := make(map[string]string, len(ChecklistCategories))
	for _, c := range ChecklistCategories {
		canonical[strings.ToLower(c)] = c
	}
	key := func(f safety.ReviewFinding) string {
		raw := strings.TrimSpace(f.Category)
		if c, ok := canonical[strings.ToLower(raw)]; ok {
			return c
		}
		if raw == "" {
			return "Uncategorized"
		}
		return raw
	}
	groups := GroupBy(findings, key, ChecklistCategories)
	out := make([]CategoryCount, len(groups))
	for i, g := range groups {
		out[i] = CategoryCount{Category: g.Key, ReviewStats: ReviewSummary(g.Items)}
	}
	return out
}

// NeedsAttention returns findings that failed or passed partially, fails first.
func NeedsAttention(findings []safety.ReviewFinding) []safety.ReviewFinding {
	var fails, partials []safety.ReviewFinding
	for _, f := range findings {
		switch f.Status {
		case safety.StatusFail:
			fails = append(fails, f)
		case safety.StatusPartial:
			partials = append(partials, f)
		}
	}
	return append(fails, partials...)
}
