package parser

import (
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

func testGoals() []safety.SafetyGoal {
	return []safety.SafetyGoal{
		{ID: "SG-001", Statement: "Avoid unintended braking", ASIL: safety.ASILD, SafeState: "Brake released", FTTI: "100 ms"},
		{ID: "SG-002", Statement: "Avoid loss of braking", ASIL: safety.ASILB, SafeState: "Degraded braking", FTTI: "200 ms"},
	}
}

func hasDiag(diags []Diagnostic, kind DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// --- field matching ---

func TestFieldTable_MostSpecificKeywordWins(t *testing.T) {
	tests := map[string]string{
		"Malfunctioning Behavior": fMalfunction,
		"Function":                fFunction,
		"Hazard ID":               fID,
		"Hazardous Event":         fHazard,
		"Severity (S)":            fSeverity,
	}
	for label, want := range tests {
		assert.Equal(t, want, hazardFields.match(label), label)
	}
}

func TestFieldTable_LinkedExcludesASIL(t *testing.T) {
	assert.Equal(t, fASIL, fsrFields.match("ASIL"))
	assert.Equal(t, "", fsrFields.match("Linked ASIL"))
	assert.Equal(t, fGoal, fsrFields.match("Linked-SG"))
	assert.Equal(t, fVerification, fsrFields.match("Validation Criteria"))
	assert.Equal(t, fVerification, fsrFields.match("Verification Criteria"))
	assert.Equal(t, fComponentType, fsrFields.match("Component Type"))
}

func TestParseBoldLabel(t *testing.T) {
	tests := []struct {
		line, label, value string
		ok                 bool
	}{
		{"**Description:** Detect faults", "Description", "Detect faults", true},
		{"- **ASIL:** D", "ASIL", "D", true},
		{"* **Status**: Pass", "Status", "Pass", true},
		{"**FSR-SG-001-DET-1**", "", "", false},
		{"plain text", "", "", false},
	}
	for _, tt := range tests {
		label, value, ok := parseBoldLabel(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.label, label, tt.line)
		assert.Equal(t, tt.value, value, tt.line)
	}
}

// --- HARA ---

func TestParseHARA_TwelveColumns(t *testing.T) {
	text := heredoc.Doc(`
		Here is the HARA:

		| Hazard ID | Function | Malfunctioning Behavior | Hazardous Event | Operational Situation | Severity (S) | Exposure (E) | Controllability (C) | ASIL | Safety Goal | Safe State | FTTI |
		|-----------|----------|---|---|---|---|---|---|---|---|---|---|
		| HAZ-001 | Braking | Unintended braking | Rear-end collision | Highway | S3 | E4 | C3 | ASIL D | SG-001: Avoid unintended braking | Brake released | 100 ms |
		| HAZ-002 | Braking | Loss of braking | Collision | Urban | S2 | E3 | C2 | B | SG-002: Avoid loss of braking | Degraded braking | 200 ms |
	`)

	res := ParseHARA(text)
	require.Len(t, res.Records, 2)
	h := res.Records[0]
	assert.Equal(t, "HAZ-001", h.ID)
	assert.Equal(t, "Unintended braking", h.Malfunction)
	assert.Equal(t, "Rear-end collision", h.Hazard)
	assert.Equal(t, "S3", h.Severity)
	assert.Equal(t, safety.ASILD, h.ASIL)
	assert.Equal(t, "100 ms", h.FTTI)
	assert.Equal(t, safety.ASILB, res.Records[1].ASIL)
	assert.Empty(t, res.Diagnostics)
}

func TestParseHARA_TenColumnsDefaultsToNA(t *testing.T) {
	text := heredoc.Doc(`
		| Hazard ID | Function | Malfunction | Hazard | Situation | S | E | C | ASIL | Safety Goal |
		|---|---|---|---|---|---|---|---|---|---|
		| H-1 | Steering | Self steer | Lane departure | Highway | S3 | E4 | C2 | C | Avoid self steering |
	`)

	res := ParseHARA(text)
	require.Len(t, res.Records, 1)
	h := res.Records[0]
	assert.Equal(t, "S3", h.Severity)
	assert.Equal(t, "C2", h.Controllability)
	assert.Equal(t, safety.ASILC, h.ASIL)
	assert.Equal(t, safety.NotAvailable, h.SafeState)
	assert.Equal(t, safety.NotAvailable, h.FTTI)
}

func TestParseHARA_NoHeaderYieldsNothing(t *testing.T) {
	text := "| HAZ-001 | a | b | c | d | S1 | E1 | C1 | A | goal |"
	res := ParseHARA(text)
	assert.Empty(t, res.Records)
	assert.True(t, hasDiag(res.Diagnostics, DiagNoStructure))
}

func TestParseHARA_UnknownASILDefaultsToQMWithDiagnostic(t *testing.T) {
	text := heredoc.Doc(`
		| Hazard ID | Function | Malfunction | Hazard | Situation | S | E | C | ASIL | Safety Goal |
		|---|---|---|---|---|---|---|---|---|---|
		| HAZ-009 | Lights | Off | Not seen | Night | S1 | E2 | C1 | high | Keep lights on |
	`)
	res := ParseHARA(text)
	require.Len(t, res.Records, 1)
	assert.Equal(t, safety.QM, res.Records[0].ASIL)
	assert.True(t, hasDiag(res.Diagnostics, DiagUnknownASIL))
}

func TestParseHARA_ShortRowsSkipped(t *testing.T) {
	text := heredoc.Doc(`
		| Hazard ID | Function | Malfunction |
		|---|---|---|
		| HAZ-001 | Braking | None |
	`)
	res := ParseHARA(text)
	assert.Empty(t, res.Records)
	assert.True(t, hasDiag(res.Diagnostics, DiagShortRow))
}

func TestDeriveGoals(t *testing.T) {
	hazards := []safety.HazardEntry{
		{ID: "HAZ-001", ASIL: safety.ASILB, SafetyGoal: "SG-004: Avoid unintended braking", SafeState: "Released", FTTI: "100 ms"},
		{ID: "HAZ-002", ASIL: safety.ASILD, SafetyGoal: "SG-004: Avoid unintended braking"},
		{ID: "HAZ-003", ASIL: safety.ASILA, SafetyGoal: "Keep lights on"},
		{ID: "HAZ-004", ASIL: safety.QM, SafetyGoal: "N/A"},
	}

	goals := DeriveGoals(hazards)
	require.Len(t, goals, 2)
	assert.Equal(t, "SG-004", goals[0].ID)
	assert.Equal(t, "Avoid unintended braking", goals[0].Statement)
	assert.Equal(t, safety.ASILD, goals[0].ASIL)
	assert.Equal(t, "100 ms", goals[0].FTTI)
	assert.Equal(t, "SG-001", goals[1].ID)
	assert.Equal(t, "Keep lights on", goals[1].Statement)
}

func TestParseGoals(t *testing.T) {
	text := heredoc.Doc(`
		| ID | Safety Goal | ASIL | Safe State | FTTI |
		|----|-------------|------|------------|------|
		| SG-001 | Avoid unintended braking | D | Brake released | 100 ms |
	`)
	res := ParseGoals(text)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Avoid unintended braking", res.Records[0].Statement)
	assert.Equal(t, safety.ASILD, res.Records[0].ASIL)
}

// --- FSR blocks ---

func TestParseFSRs_BlockFormat(t *testing.T) {
	text := heredoc.Doc(`
		## FSRs for Safety Goal: SG-001

		**FSR-001-DET-1**
		- **Description:** The system shall detect implausible wheel speed.
		- **Operating Modes:** Driving
		- **Preliminary Allocation:** Brake ECU
		- **Verification Criteria:** Fault injection test

		**FSR-SG-001-SST-1**
		- **Description:** The system shall release the brake.

		## FSRs for Safety Goal: SG-002

		- **FSR-SG-002-WRN-1**
		- **Description:** Warn the driver.
		- **ASIL:** ASIL A
	`)

	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 3)

	first := res.Records[0]
	assert.Equal(t, "FSR-SG-001-DET-1", first.ID)
	assert.Equal(t, safety.TypeDetection, first.Type)
	assert.Equal(t, safety.ASILD, first.ASIL)
	assert.Equal(t, []string{"SG-001"}, first.SafetyGoalIDs)
	assert.Equal(t, "Driving", first.OperatingModes)
	assert.Equal(t, "Brake ECU", first.AllocatedTo)
	assert.Equal(t, "Fault injection test", first.Verification)
	assert.Equal(t, "100 ms", first.Timing)
	assert.Equal(t, "Brake released", first.SafeState)

	assert.Equal(t, safety.TypeSafeState, res.Records[1].Type)

	third := res.Records[2]
	assert.Equal(t, []string{"SG-002"}, third.SafetyGoalIDs)
	assert.Equal(t, safety.ASILA, third.ASIL, "explicit ASIL overrides the inherited one")
	assert.Equal(t, "200 ms", third.Timing)
}

func TestParseFSRs_DescriptionContinuation(t *testing.T) {
	text := heredoc.Doc(`
		FSRs for Safety Goal: SG-001
		**FSR-SG-001-CTL-1**
		**Description:** The controller shall limit
		brake torque to the requested value
		**ASIL:** D

		This paragraph is unrelated commentary.
	`)

	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "The controller shall limit brake torque to the requested value", res.Records[0].Description)
}

func TestParseFSRs_UnrelatedParagraphIgnored(t *testing.T) {
	text := heredoc.Doc(`
		FSRs for Safety Goal: SG-001
		**FSR-SG-001-DET-1**
		**Verification:** Test bench
		**Description:** Detect sensor loss.

		Some closing remarks from the assistant that mention nothing.
	`)

	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Detect sensor loss.", res.Records[0].Description)
}

func TestParseFSRs_UnmatchedGroupKeepsContext(t *testing.T) {
	text := heredoc.Doc(`
		FSRs for Safety Goal: SG-001
		**FSR-SG-001-DET-1**
		**Description:** One.
		FSRs for Safety Goal: SG-02
		**FSR-003-DET-2**
		**Description:** Two.
	`)

	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"SG-001"}, res.Records[1].SafetyGoalIDs)
	assert.Equal(t, "FSR-SG-001-DET-2", res.Records[1].ID)

	require.True(t, hasDiag(res.Diagnostics, DiagUnmatchedGroup))
	for _, d := range res.Diagnostics {
		if d.Kind == DiagUnmatchedGroup {
			assert.Contains(t, d.Message, "SG-002")
		}
	}
}

func TestParseFSRs_TableAndBlockAgree(t *testing.T) {
	table := heredoc.Doc(`
		| FSR ID | Description | ASIL | Safety Goal | Allocation | Verification |
		|--------|-------------|------|-------------|------------|--------------|
		| FSR-SG-001-DET-1 | Detect sensor fault | D | SG-001 | Brake ECU | HIL test |
		| FSR-SG-002-SST-1 | Enter safe state | B | SG-002 | Actuator | Fault injection |
	`)
	block := heredoc.Doc(`
		## FSRs for Safety Goal: SG-001

		**FSR-SG-001-DET-1**
		- **Description:** Detect sensor fault
		- **ASIL:** D
		- **Preliminary Allocation:** Brake ECU
		- **Verification Criteria:** HIL test

		## FSRs for Safety Goal: SG-002

		**FSR-SG-002-SST-1**
		- **Description:** Enter safe state
		- **ASIL:** B
		- **Preliminary Allocation:** Actuator
		- **Verification Criteria:** Fault injection
	`)

	fromTable := ParseFSRs(table, testGoals())
	fromBlock := ParseFSRs(block, testGoals())
	require.Len(t, fromTable.Records, 2)
	assert.Equal(t, fromTable.Records, fromBlock.Records)
}

func TestParseFSRs_Idempotent(t *testing.T) {
	text := heredoc.Doc(`
		FSRs for Safety Goal: SG-001
		**FSR-SG-001-DET-1**
		**Description:** Detect.
	`)
	assert.Equal(t, ParseFSRs(text, testGoals()), ParseFSRs(text, testGoals()))
}

func TestParseFSRs_SharedRequirementInTable(t *testing.T) {
	text := heredoc.Doc(`
		| FSR-ID | Type | ASIL | Linked-SG | Description |
		|---|---|---|---|---|
		| FSR-SG-001-ARB-1 | Arbitration | D | SG-001, SG-002 | Arbitrate requests |
		| FSR-SG-001-9 | Detection | D | SG-001 | Typed by column |
	`)
	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"SG-001", "SG-002"}, res.Records[0].SafetyGoalIDs)
	assert.Equal(t, safety.TypeArbitration, res.Records[0].Type)
	assert.Equal(t, safety.TypeDetection, res.Records[1].Type)
}

func TestParseFSRs_AllocationRationaleLabel(t *testing.T) {
	text := heredoc.Doc(`
		FSRs for Safety Goal: SG-001
		**FSR-SG-001-DET-1**
		- **Description:** Detect sensor fault
		- **Allocated To:** Brake ECU
		- **Allocation Rationale:** owns sensor
	`)
	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Brake ECU", res.Records[0].AllocatedTo)
	assert.Equal(t, "owns sensor", res.Records[0].AllocationRationale)
}

func TestParseFSRs_FirstColumnIsIdentifier(t *testing.T) {
	text := heredoc.Doc(`
		| Requirement ID | Description | ASIL | Safety Goal |
		|---|---|---|---|
		| FSR-SG-001-DET-1 | Detect sensor fault | D | SG-001 |
	`)
	res := ParseFSRs(text, testGoals())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "FSR-SG-001-DET-1", res.Records[0].ID)
	assert.Equal(t, "Detect sensor fault", res.Records[0].Description)
	assert.Equal(t, []string{"SG-001"}, res.Records[0].SafetyGoalIDs)
	assert.False(t, hasDiag(res.Diagnostics, DiagUngroupedRecord))
}

func TestParseFSRs_NothingRecognized(t *testing.T) {
	res := ParseFSRs("I could not derive any requirements.", testGoals())
	assert.Empty(t, res.Records)
	assert.True(t, hasDiag(res.Diagnostics, DiagNoStructure))
}

func TestNormalizeFSRID(t *testing.T) {
	assert.Equal(t, "FSR-SG-001-DET-1", NormalizeFSRID("FSR-001-DET-1", "SG-001"))
	assert.Equal(t, "FSR-SG-001-DET-1", NormalizeFSRID("FSR-SG-001-DET-1", "SG-002"))
	assert.Equal(t, "FSR-X", NormalizeFSRID("FSR-X", "SG-001"))
	assert.Equal(t, "FSR-001-DET-1", NormalizeFSRID("FSR-001-DET-1", ""))
}

// --- allocation ---

func TestParseAllocation_TableUpdatesCopies(t *testing.T) {
	fsrs := []safety.FSR{
		{ID: "FSR-SG-001-DET-1", ASIL: safety.ASILD},
		{ID: "FSR-SG-001-SST-1", ASIL: safety.ASILD, AllocatedTo: "TBD"},
	}
	text := heredoc.Doc(`
		| FSR ID | Allocated To | Component Type | Rationale | Interface |
		|---|---|---|---|---|
		| FSR-SG-001-DET-1 | Brake ECU | Hardware | Has sensor access | CAN |
		| FSR-SG-009-DET-1 | Ghost | Software | none | none |
	`)

	res := ParseAllocation(text, fsrs)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Brake ECU", res.Records[0].AllocatedTo)
	assert.Equal(t, "Hardware", res.Records[0].ComponentType)
	assert.Equal(t, "Has sensor access", res.Records[0].AllocationRationale)
	assert.Equal(t, "CAN", res.Records[0].Interface)
	assert.Equal(t, "TBD", res.Records[1].AllocatedTo)
	assert.Equal(t, "", fsrs[0].AllocatedTo, "input must not be mutated")
	assert.True(t, hasDiag(res.Diagnostics, DiagUnknownRecord))
}

func TestParseAllocation_Blocks(t *testing.T) {
	fsrs := []safety.FSR{{ID: "FSR-SG-001-DET-1"}}
	text := heredoc.Doc(`
		**FSR-SG-001-DET-1**
		- **Allocated to:** Wheel Speed Sensor
		- **Component Type:** Sensor
		- **Rationale:** Closest to the signal
	`)
	res := ParseAllocation(text, fsrs)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Wheel Speed Sensor", res.Records[0].AllocatedTo)
	assert.Equal(t, "Sensor", res.Records[0].ComponentType)
}

func TestParseAllocation_AllocationRationaleLabel(t *testing.T) {
	fsrs := []safety.FSR{{ID: "FSR-SG-001-DET-1"}}

	block := heredoc.Doc(`
		**FSR-SG-001-DET-1**
		- **Allocated To:** Brake ECU
		- **Allocation Rationale:** ECU owns the sensor input
	`)
	res := ParseAllocation(block, fsrs)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Brake ECU", res.Records[0].AllocatedTo)
	assert.Equal(t, "ECU owns the sensor input", res.Records[0].AllocationRationale)

	table := heredoc.Doc(`
		| FSR ID | Allocated To | Component Type | Allocation Rationale | Interface |
		|---|---|---|---|---|
		| FSR-SG-001-DET-1 | Brake ECU | Hardware | ECU owns the sensor input | CAN |
	`)
	res = ParseAllocation(table, fsrs)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Brake ECU", res.Records[0].AllocatedTo)
	assert.Equal(t, "ECU owns the sensor input", res.Records[0].AllocationRationale)
	assert.Equal(t, "CAN", res.Records[0].Interface)
}

// --- mechanisms ---

func TestParseMechanisms(t *testing.T) {
	text := heredoc.Doc(`
		### SM-001: Wheel speed plausibility
		- **Name:** Wheel speed plausibility check
		- **Category:** Detection
		- **Description:** Compares the four wheel speeds.
		- **Diagnostic Coverage:** 99%
		- **ASIL:** ASIL C, D
		- **Covered FSRs:** FSR-SG-001-DET-1, FSR-SG-002-DET-1

		### SM-002
		- **Mechanism Type:** control
	`)

	res := ParseMechanisms(text)
	require.Len(t, res.Records, 2)
	m := res.Records[0]
	assert.Equal(t, "SM-001", m.ID)
	assert.Equal(t, "Wheel speed plausibility check", m.Name)
	assert.Equal(t, safety.MechanismDetection, m.Category)
	assert.Equal(t, "99%", m.DiagnosticCoverage)
	assert.Equal(t, []safety.ASIL{safety.ASILC, safety.ASILD}, m.ASILs)
	assert.Equal(t, []string{"FSR-SG-001-DET-1", "FSR-SG-002-DET-1"}, m.CoveredFSRs)

	assert.Equal(t, "SM-002", res.Records[1].Name)
	assert.Equal(t, safety.MechanismControl, res.Records[1].Category)
}

// --- reviews ---

func TestParseReview(t *testing.T) {
	text := heredoc.Doc(`
		**ID:** HR-001
		**Category:** Identification and Classification
		**Requirement:** Hazards shall be identified
		**Description:** Checks hazard identification.
		**ISO Clause:** 6.4.2
		**Status:** Pass
		**Comment:** Complete.
		**Hint for improvement:** None.

		---

		**ID:** HR-002
		**Category:** Functional Description
		**Status:** Partial Pass

		===

		**ID:** HR-003
		**Status:** N/A
	`)

	res := ParseReview(text)
	require.Len(t, res.Records, 3)
	r := res.Records[0]
	assert.Equal(t, "HR-001", r.ID)
	assert.Equal(t, "Identification and Classification", r.Category)
	assert.Equal(t, "6.4.2", r.ISOClause)
	assert.Equal(t, safety.StatusPass, r.Status)
	assert.Equal(t, "None.", r.Hint)
	assert.Equal(t, safety.StatusPartial, res.Records[1].Status)
	assert.Equal(t, safety.StatusNotApplicable, res.Records[2].Status)
}

func TestParseReview_OrphanFieldsReported(t *testing.T) {
	res := ParseReview("**Status:** Pass\n")
	assert.Empty(t, res.Records)
	assert.True(t, hasDiag(res.Diagnostics, DiagOrphanField))
}
