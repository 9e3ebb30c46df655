package workflow

import "strings"

// Guidance is the recommended follow-up for a stage.
type Guidance struct {
	Next        string
	Alternative string
	Export      string
}

var guidance = map[Stage]Guidance{
	StageHARALoaded: {
		Next:        "develop safety strategies for all goals",
		Alternative: "develop safety strategy for SG-001",
		Export:      "fusa_export kind=hara",
	},
	StageStrategiesDeveloped: {
		Next:   "derive FSRs for all goals, then fusa_parse_fsrs",
		Export: "fusa_export kind=hara_review",
	},
	StageFSRsDerived: {
		Next:   "allocate all FSRs, then fusa_allocate",
		Export: "fusa_export kind=fsr",
	},
	StageFSRsAllocated: {
		Next:        "identify safety mechanisms, then fusa_parse_mechanisms",
		Alternative: "fusa_allocation_report",
		Export:      "fusa_export kind=allocation",
	},
	StageMechanismsIdentified: {
		Next:   "specify validation criteria",
		Export: "fusa_export kind=fsc format=md",
	},
	StageValidationCriteriaSpecified: {
		Next:   "verify FSC with fusa_validate",
		Export: "fusa_export kind=fsr",
	},
	StageFSCVerified: {
		Next:        "generate FSC document with fusa_export kind=fsc",
		Alternative: "fusa_export kind=fsc format=md",
	},
}

// GuidanceFor returns the follow-up for stage. The final stage has none.
func GuidanceFor(stage Stage) (Guidance, bool) {
	g, ok := guidance[stage]
	return g, ok
}

const nextStepsHeading = "### 🚀 Next Steps"

// AppendGuidance adds the next-steps footer for stage to content unless a
// next-steps block is already present.
func AppendGuidance(content string, stage Stage) string {
	g, ok := GuidanceFor(stage)
	if !ok {
		return content
	}
	if strings.Contains(content, nextStepsHeading) || strings.Contains(content, "**Next Steps:**") {
		return content
	}

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n---\n\n")
	b.WriteString(nextStepsHeading + "\n\n")
	b.WriteString("**Recommended:** `" + g.Next + "`\n")
	if g.Alternative != "" {
		b.WriteString("**Alternative:** `" + g.Alternative + "`\n")
	}
	if g.Export != "" {
		b.WriteString("**Export:** `" + g.Export + "`\n")
	}
	return b.String()
}
