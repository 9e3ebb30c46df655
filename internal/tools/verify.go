package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/validate"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// ValidateTool handles the fusa_validate MCP tool. It verifies the
// functional safety concept held by the session.
type ValidateTool struct {
	store    Store
	settings Settings
	log      *zap.Logger
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(store Store, settings Settings, log *zap.Logger) *ValidateTool {
	return &ValidateTool{store: store, settings: settings, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_validate",
		mcp.WithDescription(
			"Verify the functional safety concept (ISO 26262-3 Clause 7.4.3): goal coverage, "+
				"allocation completeness, ASIL consistency, freedom from interference and "+
				"mechanism coverage. Blocking errors stop the workflow; warnings are listed.",
		),
		sessionArg(),
	)
}

// verificationCheck is one line of the verification checklist.
type verificationCheck struct {
	name     string
	actual   int
	expected int
}

// Handle processes the fusa_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	ds, err := t.store.Dataset(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	results := []validate.Result{
		validate.FSRs(ds.Goals, ds.FSRs, validate.Options{SoftThreshold: t.settings.Report.SoftThreshold}),
		validate.Mechanisms(ds.Mechanisms, ds.FSRs),
	}
	if len(ds.Hazards) > 0 {
		results = append(results, validate.Hazards(ds.Hazards))
	}
	check := validate.Merge(results...)
	if !check.Valid {
		return validationError("verify the functional safety concept", check), nil
	}

	st, err := t.store.Advance(ctx, sess.ID, workflow.StageFSCVerified)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	cov := aggregate.GoalCoverage(ds.Goals, ds.FSRs)
	alloc := aggregate.AllocationRecords(ds.FSRs)
	withCriteria := 0
	for _, f := range ds.FSRs {
		if strings.TrimSpace(f.Verification) != "" && f.Verification != safety.NotAvailable {
			withCriteria++
		}
	}
	checks := []verificationCheck{
		{"Safety goals covered by FSRs", cov.Covered, cov.Total},
		{"FSRs allocated", alloc.Allocated(), alloc.Total},
		{"FSRs with verification criteria", withCriteria, len(ds.FSRs)},
		{"Components without high-risk ASIL mixing", len(alloc.Components) - countRisk(alloc, aggregate.RiskHigh), len(alloc.Components)},
	}
	if len(ds.Mechanisms) > 0 {
		tm := aggregate.TraceabilityMatrix(ds.FSRs, ds.Mechanisms)
		checks = append(checks, verificationCheck{"FSRs covered by safety mechanisms", len(ds.FSRs) - len(tm.Uncovered), len(ds.FSRs)})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 📋 FSC Verification: %s\n\n", orDash(ds.System))
	b.WriteString("*ISO 26262-3:2018, Clause 7.4.3*\n\n")
	b.WriteString("| Check | Result | Status |\n")
	b.WriteString("|---|---|---|\n")
	passed := 0
	for _, c := range checks {
		status := aggregate.CheckStatus(c.actual, c.expected)
		if status == aggregate.CheckPass {
			passed++
		}
		fmt.Fprintf(&b, "| %s | %d/%d | %s %s |\n", c.name, c.actual, c.expected, checkIcon(status), status)
	}
	fmt.Fprintf(&b, "\n**Checks passed:** %d/%d\n", passed, len(checks))
	writeValidation(&b, check)

	return respond(ctx, t.store, t.log, sess, outcome{op: opFSCVerification, stage: st.Stage, hasFSRs: len(ds.FSRs) > 0}, b.String()), nil
}

func countRisk(a aggregate.Allocation, r aggregate.Risk) int {
	n := 0
	for _, c := range a.Components {
		if c.Risk == r {
			n++
		}
	}
	return n
}

func checkIcon(c aggregate.Check) string {
	switch c {
	case aggregate.CheckPass:
		return "✅"
	case aggregate.CheckPartial:
		return "⚠️"
	default:
		return "❌"
	}
}
