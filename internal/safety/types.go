package safety

import (
	"fmt"
	"strings"
)

// --- FSR type enum ---

// FSRType is the functional category of a requirement, derived from the
// three-letter code embedded in its identifier.
type FSRType string

const (
	TypeAvoidance   FSRType = "Fault Avoidance"
	TypeDetection   FSRType = "Fault Detection"
	TypeControl     FSRType = "Fault Control"
	TypeSafeState   FSRType = "Safe State Transition"
	TypeTolerance   FSRType = "Fault Tolerance"
	TypeWarning     FSRType = "Warning/Indication"
	TypeTiming      FSRType = "Timing"
	TypeArbitration FSRType = "Arbitration"
	TypeGeneral     FSRType = "General"
)

// TypeCode pairs an identifier infix code with its type.
type TypeCode struct {
	Code string
	Type FSRType
}

// TypeCodes lists the recognized infix codes in match order. The first code
// whose "-CODE-" infix appears in an identifier wins.
var TypeCodes = []TypeCode{
	{"AVD", TypeAvoidance},
	{"DET", TypeDetection},
	{"CTL", TypeControl},
	{"SST", TypeSafeState},
	{"TOL", TypeTolerance},
	{"WRN", TypeWarning},
	{"TIM", TypeTiming},
	{"ARB", TypeArbitration},
}

// TypeFromID scans id for a known "-CODE-" infix. No match yields TypeGeneral.
func TypeFromID(id string) FSRType {
	for _, tc := range TypeCodes {
		if strings.Contains(id, "-"+tc.Code+"-") {
			return tc.Type
		}
	}
	return TypeGeneral
}

// TypeFamily folds FSR types into the three families used by coverage
// statistics.
type TypeFamily string

const (
	FamilyDetection  TypeFamily = "detection"
	FamilyReaction   TypeFamily = "reaction"
	FamilyIndication TypeFamily = "indication"
	FamilyOther      TypeFamily = "other"
)

// Family returns the coverage family of t.
func (t FSRType) Family() TypeFamily {
	switch t {
	case TypeDetection:
		return FamilyDetection
	case TypeControl, TypeSafeState, TypeTolerance, TypeArbitration:
		return FamilyReaction
	case TypeWarning:
		return FamilyIndication
	default:
		return FamilyOther
	}
}

// --- Review status enum ---

// ReviewStatus is the outcome of one checklist item.
type ReviewStatus string

const (
	StatusPass          ReviewStatus = "Pass"
	StatusFail          ReviewStatus = "Fail"
	StatusPartial       ReviewStatus = "Partial Pass"
	StatusNotApplicable ReviewStatus = "Not Applicable"
	StatusUnknown       ReviewStatus = ""
)

// ClassifyStatus maps free text onto the four-way status. Checks run in the
// order partial, pass, fail, not applicable, so "Partial Pass" never counts
// as a pass and "N/A (fail)" counts as a fail.
func ClassifyStatus(raw string) ReviewStatus {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "partial"):
		return StatusPartial
	case strings.Contains(s, "pass"):
		return StatusPass
	case strings.Contains(s, "fail"):
		return StatusFail
	case strings.Contains(s, "not applicable"), strings.Contains(s, "n/a"):
		return StatusNotApplicable
	default:
		return StatusUnknown
	}
}

// ReviewKind identifies which work product a review covers.
type ReviewKind string

const (
	ReviewHARA           ReviewKind = "hara"
	ReviewItemDefinition ReviewKind = "item_definition"
)

var validReviewKinds = map[ReviewKind]bool{
	ReviewHARA:           true,
	ReviewItemDefinition: true,
}

// ValidateReviewKind returns an error if k is not recognized.
func ValidateReviewKind(k ReviewKind) error {
	if !validReviewKinds[k] {
		return fmt.Errorf("invalid review kind %q: must be one of: hara, item_definition", k)
	}
	return nil
}

// --- Mechanism category enum ---

// MechanismCategory groups safety mechanisms in the concept document.
type MechanismCategory string

const (
	MechanismDetection  MechanismCategory = "detection"
	MechanismMitigation MechanismCategory = "mitigation"
	MechanismControl    MechanismCategory = "control"
	MechanismOther      MechanismCategory = "other"
)

// MechanismCategories is the document order of categories.
var MechanismCategories = []MechanismCategory{
	MechanismDetection, MechanismMitigation, MechanismControl, MechanismOther,
}

// ParseMechanismCategory maps free text onto a category by keyword.
func ParseMechanismCategory(raw string) MechanismCategory {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "detect"), strings.Contains(s, "diagnos"), strings.Contains(s, "monitor"):
		return MechanismDetection
	case strings.Contains(s, "mitigat"), strings.Contains(s, "reaction"):
		return MechanismMitigation
	case strings.Contains(s, "control"), strings.Contains(s, "safe state"):
		return MechanismControl
	default:
		return MechanismOther
	}
}

// --- Allocation sentinel ---

// Unallocated is the display name for FSRs without an allocation target.
const Unallocated = "Unallocated"

var unallocatedMarkers = map[string]bool{
	"":              true,
	"TBD":           true,
	"NOT ALLOCATED": true,
	"N/A":           true,
	"UNALLOCATED":   true,
}

// IsUnallocated reports whether target names no real component.
func IsUnallocated(target string) bool {
	return unallocatedMarkers[strings.ToUpper(strings.TrimSpace(target))]
}

// NotAvailable is the default for missing text columns.
const NotAvailable = "N/A"

// --- Records ---

// HazardEntry is one row of a hazard analysis and risk assessment.
type HazardEntry struct {
	ID              string `json:"id" yaml:"id"`
	Function        string `json:"function" yaml:"function"`
	Malfunction     string `json:"malfunction" yaml:"malfunction"`
	Hazard          string `json:"hazard" yaml:"hazard"`
	Situation       string `json:"situation" yaml:"situation"`
	Severity        string `json:"severity" yaml:"severity"`
	Exposure        string `json:"exposure" yaml:"exposure"`
	Controllability string `json:"controllability" yaml:"controllability"`
	ASIL            ASIL   `json:"asil" yaml:"asil"`
	SafetyGoal      string `json:"safety_goal" yaml:"safety_goal"`
	SafeState       string `json:"safe_state" yaml:"safe_state"`
	FTTI            string `json:"ftti" yaml:"ftti"`
}

// SafetyGoal is a top-level safety requirement derived from the HARA.
type SafetyGoal struct {
	ID        string `json:"id" yaml:"id"`
	Statement string `json:"statement" yaml:"statement"`
	ASIL      ASIL   `json:"asil" yaml:"asil"`
	SafeState string `json:"safe_state,omitempty" yaml:"safe_state,omitempty"`
	FTTI      string `json:"ftti,omitempty" yaml:"ftti,omitempty"`
}

// FSR is a functional safety requirement. SafetyGoalIDs holds one id for a
// dedicated requirement and several for a shared one.
type FSR struct {
	ID                  string   `json:"id" yaml:"id"`
	Description         string   `json:"description" yaml:"description"`
	Type                FSRType  `json:"type" yaml:"type"`
	ASIL                ASIL     `json:"asil" yaml:"asil"`
	SafetyGoalIDs       []string `json:"safety_goal_ids" yaml:"safety_goal_ids"`
	AllocatedTo         string   `json:"allocated_to,omitempty" yaml:"allocated_to,omitempty"`
	AllocationRationale string   `json:"allocation_rationale,omitempty" yaml:"allocation_rationale,omitempty"`
	ComponentType       string   `json:"component_type,omitempty" yaml:"component_type,omitempty"`
	Interface           string   `json:"interface,omitempty" yaml:"interface,omitempty"`
	Verification        string   `json:"verification,omitempty" yaml:"verification,omitempty"`
	Timing              string   `json:"timing,omitempty" yaml:"timing,omitempty"`
	OperatingModes      string   `json:"operating_modes,omitempty" yaml:"operating_modes,omitempty"`
	SafeState           string   `json:"safe_state,omitempty" yaml:"safe_state,omitempty"`
}

// LinksGoal reports whether the requirement names goalID exactly.
func (f FSR) LinksGoal(goalID string) bool {
	for _, id := range f.SafetyGoalIDs {
		if id == goalID {
			return true
		}
	}
	return false
}

// Allocated reports whether the requirement has a real allocation target.
func (f FSR) Allocated() bool { return !IsUnallocated(f.AllocatedTo) }

// ReviewFinding is one checklist item of a work-product review.
type ReviewFinding struct {
	ID          string       `json:"id" yaml:"id"`
	Category    string       `json:"category" yaml:"category"`
	Requirement string       `json:"requirement" yaml:"requirement"`
	Description string       `json:"description" yaml:"description"`
	ISOClause   string       `json:"iso_clause,omitempty" yaml:"iso_clause,omitempty"`
	Status      ReviewStatus `json:"status" yaml:"status"`
	RawStatus   string       `json:"raw_status,omitempty" yaml:"raw_status,omitempty"`
	Comment     string       `json:"comment,omitempty" yaml:"comment,omitempty"`
	Hint        string       `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// SafetyMechanism is a technical measure covering one or more FSRs.
type SafetyMechanism struct {
	ID                 string            `json:"id" yaml:"id"`
	Name               string            `json:"name" yaml:"name"`
	Category           MechanismCategory `json:"category" yaml:"category"`
	Description        string            `json:"description,omitempty" yaml:"description,omitempty"`
	DiagnosticCoverage string            `json:"diagnostic_coverage,omitempty" yaml:"diagnostic_coverage,omitempty"`
	ASILs              []ASIL            `json:"asils,omitempty" yaml:"asils,omitempty"`
	CoveredFSRs        []string          `json:"covered_fsrs,omitempty" yaml:"covered_fsrs,omitempty"`
}

// Covers reports whether the mechanism lists fsrID.
func (m SafetyMechanism) Covers(fsrID string) bool {
	for _, id := range m.CoveredFSRs {
		if id == fsrID {
			return true
		}
	}
	return false
}

// Dataset is every record known for one system. It is the single input of the
// validation, aggregation and report stages.
type Dataset struct {
	System     string                         `json:"system" yaml:"system"`
	Hazards    []HazardEntry                  `json:"hazards,omitempty" yaml:"hazards,omitempty"`
	Goals      []SafetyGoal                   `json:"goals,omitempty" yaml:"goals,omitempty"`
	FSRs       []FSR                          `json:"fsrs,omitempty" yaml:"fsrs,omitempty"`
	Mechanisms []SafetyMechanism              `json:"mechanisms,omitempty" yaml:"mechanisms,omitempty"`
	Reviews    map[ReviewKind][]ReviewFinding `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}
