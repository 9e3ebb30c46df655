package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/fusadocs/internal/safety"
)

func goals3() []safety.SafetyGoal {
	return []safety.SafetyGoal{
		{ID: "SG-001", ASIL: safety.ASILD},
		{ID: "SG-002", ASIL: safety.ASILB},
		{ID: "SG-003", ASIL: safety.ASILB},
	}
}

func fsr(id, goal string, asil safety.ASIL, allocatedTo string) safety.FSR {
	return safety.FSR{
		ID:            id,
		Type:          safety.TypeFromID(id),
		ASIL:          asil,
		SafetyGoalIDs: []string{goal},
		AllocatedTo:   allocatedTo,
	}
}

func fullCoverage() []safety.FSR {
	return []safety.FSR{
		fsr("FSR-SG-001-DET-1", "SG-001", safety.ASILD, ""),
		fsr("FSR-SG-001-SST-1", "SG-001", safety.ASILD, ""),
		fsr("FSR-SG-002-DET-1", "SG-002", safety.ASILB, ""),
		fsr("FSR-SG-003-DET-1", "SG-003", safety.ASILB, ""),
		fsr("FSR-SG-003-WRN-1", "SG-003", safety.ASILB, ""),
	}
}

func countContaining(list []string, sub string) int {
	n := 0
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), strings.ToLower(sub)) {
			n++
		}
	}
	return n
}

// --- FSRs ---

func TestFSRs_EmptyRequirements(t *testing.T) {
	res := FSRs(goals3(), nil, Options{})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, countContaining(res.Errors, "FSRs"))
}

func TestFSRs_EmptyGoals(t *testing.T) {
	res := FSRs(nil, fullCoverage(), Options{})

	assert.False(t, res.Valid)
	assert.Equal(t, 1, countContaining(res.Errors, "safety goals"))
}

func TestFSRs_FullCoverage(t *testing.T) {
	res := FSRs(goals3(), fullCoverage(), Options{})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Zero(t, countContaining(res.Warnings, "no linked FSRs"))
}

func TestFSRs_GoalWithoutRequirements(t *testing.T) {
	fsrs := fullCoverage()[:3]
	res := FSRs(goals3(), fsrs, Options{})

	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Safety goal SG-003 has no linked FSRs")
}

func TestFSRs_DuplicateIsWarning(t *testing.T) {
	fsrs := append(fullCoverage(), fsr("FSR-SG-001-DET-1", "SG-001", safety.ASILD, ""))
	res := FSRs(goals3(), fsrs, Options{})

	assert.True(t, res.Valid)
	assert.Equal(t, 1, countContaining(res.Warnings, "duplicate"))
	assert.Equal(t, 1, countContaining(res.Warnings, "FSR-SG-001-DET-1"))
}

func TestFSRs_UnresolvedParent(t *testing.T) {
	fsrs := append(fullCoverage(), fsr("FSR-SG-009-DET-1", "SG-009", safety.ASILB, ""))
	res := FSRs(goals3(), fsrs, Options{})

	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "FSR FSR-SG-009-DET-1 references unknown safety goal SG-009")
}

func TestFSRs_CaseMismatchedParentDoesNotCover(t *testing.T) {
	fsrs := fullCoverage()
	fsrs[2].SafetyGoalIDs = []string{"sg-002"}
	res := FSRs(goals3(), fsrs, Options{})

	assert.Contains(t, res.Warnings, "Safety goal SG-002 has no linked FSRs")
}

func TestFSRs_ASILMismatch(t *testing.T) {
	fsrs := fullCoverage()
	fsrs[0].ASIL = safety.ASILB
	res := FSRs(goals3(), fsrs, Options{})

	assert.Equal(t, 1, countContaining(res.Warnings, "decomposition"))
}

func TestFSRs_PartialAllocationBand(t *testing.T) {
	tests := []struct {
		name      string
		allocated int
		want      int
		below     int
	}{
		{"none allocated", 0, 1, 1},
		{"below threshold", 3, 1, 1},
		{"at threshold", 4, 1, 0},
		{"complete", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsrs := fullCoverage()
			for i := 0; i < tt.allocated; i++ {
				fsrs[i].AllocatedTo = "ECU-" + fsrs[i].SafetyGoalIDs[0] + "-" + fsrs[i].ASIL.String()
			}
			res := FSRs(goals3(), fsrs, Options{})
			assert.True(t, res.Valid)
			assert.Equal(t, tt.want, countContaining(res.Warnings, "Allocation incomplete"))
			assert.Equal(t, tt.below, countContaining(res.Warnings, "below the 80% threshold"))
		})
	}
}

func TestFSRs_BelowThresholdMessage(t *testing.T) {
	fsrs := fullCoverage()
	for i := 0; i < 3; i++ {
		fsrs[i].AllocatedTo = "Brake ECU " + fsrs[i].ID
	}
	res := FSRs(goals3(), fsrs, Options{})

	assert.Contains(t, res.Warnings, "Allocation incomplete: 3 of 5 FSRs allocated (60.0%), below the 80% threshold")
}

func TestFSRs_SoftThresholdOption(t *testing.T) {
	fsrs := fullCoverage()
	for i := 0; i < 3; i++ {
		fsrs[i].AllocatedTo = "Brake ECU " + fsrs[i].ID
	}
	res := FSRs(goals3(), fsrs, Options{SoftThreshold: 0.5})

	assert.Equal(t, 1, countContaining(res.Warnings, "3 of 5 FSRs allocated (60.0%)"))
}

func TestFSRs_ASILMixing(t *testing.T) {
	fsrs := fullCoverage()
	fsrs[0].AllocatedTo = "Brake ECU" // D
	fsrs[2].AllocatedTo = "Brake ECU" // B
	fsrs[3].AllocatedTo = "HMI"       // B
	fsrs[4].AllocatedTo = "HMI"       // B
	res := FSRs(goals3(), fsrs, Options{})

	assert.Contains(t, res.Warnings, "HIGH risk: Brake ECU mixes D, B; freedom from interference required")
	assert.Zero(t, countContaining(res.Warnings, "HMI mixes"))
}

func TestFSRs_ASILMixingMedium(t *testing.T) {
	goals := []safety.SafetyGoal{{ID: "SG-001", ASIL: safety.ASILB}, {ID: "SG-002", ASIL: safety.ASILA}}
	fsrs := []safety.FSR{
		fsr("FSR-SG-001-DET-1", "SG-001", safety.ASILB, "Sensor"),
		fsr("FSR-SG-002-DET-1", "SG-002", safety.ASILA, "Sensor"),
	}
	res := FSRs(goals, fsrs, Options{})

	assert.Contains(t, res.Warnings, "MEDIUM risk: Sensor mixes B, A; freedom from interference required")
}

func TestFSRs_NoDetectionType(t *testing.T) {
	goals := []safety.SafetyGoal{{ID: "SG-001", ASIL: safety.ASILC}}
	fsrs := []safety.FSR{fsr("FSR-SG-001-WRN-1", "SG-001", safety.ASILC, "")}
	res := FSRs(goals, fsrs, Options{})

	assert.Contains(t, res.Warnings, "No detection-type FSR present")
}

func TestFSRs_OrderIndependent(t *testing.T) {
	fsrs := append(fullCoverage(),
		fsr("FSR-SG-001-DET-1", "SG-001", safety.ASILD, ""),
		fsr("FSR-SG-007-CTL-1", "SG-007", safety.ASILA, ""),
	)
	reversed := make([]safety.FSR, len(fsrs))
	for i, f := range fsrs {
		reversed[len(fsrs)-1-i] = f
	}

	first := FSRs(goals3(), fsrs, Options{})
	second := FSRs(goals3(), reversed, Options{})

	assert.Equal(t, first, second)
	assert.Equal(t, first, FSRs(goals3(), fsrs, Options{}))
}

func TestFSRs_WarningsGroupedByCategory(t *testing.T) {
	fsrs := append(fullCoverage()[:3],
		fsr("FSR-SG-001-DET-1", "SG-001", safety.ASILD, ""),
		fsr("FSR-SG-007-CTL-1", "SG-007", safety.ASILA, ""),
	)
	res := FSRs(goals3(), fsrs, Options{})

	require.GreaterOrEqual(t, len(res.Warnings), 3)
	assert.Contains(t, res.Warnings[0], "Duplicate")
	assert.Contains(t, res.Warnings[1], "references unknown safety goal")
}

// --- Hazards ---

func TestHazards(t *testing.T) {
	res := Hazards(nil)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"No HARA entries available"}, res.Errors)

	res = Hazards([]safety.HazardEntry{
		{ID: "HAZ-001", ASIL: safety.ASILD, SafetyGoal: "Avoid unintended braking"},
		{ID: "HAZ-001", ASIL: safety.QM, SafetyGoal: "N/A"},
		{ID: "HAZ-002", ASIL: safety.ASILC, SafetyGoal: ""},
	})
	assert.True(t, res.Valid)
	assert.Equal(t, []string{
		"Duplicate hazard ID HAZ-001 (2 occurrences)",
		"Hazard HAZ-002 is ASIL C but has no safety goal",
	}, res.Warnings)
}

// --- Reviews ---

func TestReviews(t *testing.T) {
	res := Reviews(nil)
	assert.False(t, res.Valid)

	res = Reviews([]safety.ReviewFinding{
		{ID: "HR-001", Status: safety.StatusPass},
		{ID: "HR-002", Status: safety.StatusUnknown},
	})
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"Review item HR-002 has no recognized status"}, res.Warnings)
}

// --- Mechanisms ---

func TestMechanisms(t *testing.T) {
	assert.Equal(t, Result{Valid: true, Warnings: []string{}, Errors: []string{}}, Mechanisms(nil, fullCoverage()))

	fsrs := fullCoverage()[:2]
	res := Mechanisms([]safety.SafetyMechanism{
		{ID: "SM-001", CoveredFSRs: []string{"FSR-SG-001-DET-1", "FSR-SG-009-DET-1"}},
	}, fsrs)

	assert.True(t, res.Valid)
	assert.Equal(t, []string{
		"Safety mechanism SM-001 covers unknown FSR FSR-SG-009-DET-1",
		"FSR FSR-SG-001-SST-1 is not covered by any safety mechanism",
	}, res.Warnings)
}

func TestMerge(t *testing.T) {
	a := Result{Valid: true, Warnings: []string{"w1"}, Errors: []string{}}
	b := Result{Valid: false, Warnings: []string{}, Errors: []string{"e1"}}

	got := Merge(a, b)
	assert.False(t, got.Valid)
	assert.Equal(t, []string{"w1"}, got.Warnings)
	assert.Equal(t, []string{"e1"}, got.Errors)
}
