package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/parser"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/validate"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// AllocateTool handles the fusa_allocate MCP tool. It applies an
// allocation of FSRs to architectural elements.
type AllocateTool struct {
	store    Store
	settings Settings
	log      *zap.Logger
}

// NewAllocateTool creates an AllocateTool.
func NewAllocateTool(store Store, settings Settings, log *zap.Logger) *AllocateTool {
	return &AllocateTool{store: store, settings: settings, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *AllocateTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_allocate",
		mcp.WithDescription(
			"Apply an FSR allocation (ISO 26262-3 Clause 7.4.2.8) to the session's FSRs. "+
				"Accepts a table with an FSR ID column and 'Allocated To', 'Component Type', "+
				"'Rationale', 'Interface' columns, or **FSR-...** blocks with the same fields. "+
				"FSRs not mentioned keep their current allocation.",
		),
		sessionArg(),
		textArg("allocation"),
	)
}

// Handle processes the fusa_allocate tool call.
func (t *AllocateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	text, errRes := requireText(req, "text")
	if errRes != nil {
		return errRes, nil
	}

	ds, err := t.store.Dataset(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	if len(ds.FSRs) == 0 {
		return mcp.NewToolResultError("No FSRs in this session. Derive them and call `fusa_parse_fsrs` first."), nil
	}

	parsed := parser.ParseAllocation(text, ds.FSRs)
	logDiagnostics(t.log, "fusa_allocate", parsed.Diagnostics)
	if noStructure(parsed.Diagnostics) {
		return mcp.NewToolResultError("Could not recognize any allocation. Use a table with an FSR ID column or **FSR-...** blocks with an 'Allocated to:' field."), nil
	}
	changed := 0
	for i, f := range parsed.Records {
		if f.AllocatedTo != ds.FSRs[i].AllocatedTo {
			changed++
		}
	}

	if err := t.store.SaveDataset(ctx, sess.ID, safety.Dataset{FSRs: parsed.Records}); err != nil {
		return nil, fmt.Errorf("saving allocation: %w", err)
	}
	st, err := t.store.Advance(ctx, sess.ID, workflow.StageFSRsAllocated)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	alloc := aggregate.AllocationRecords(parsed.Records)
	check := validate.FSRs(ds.Goals, parsed.Records, validate.Options{SoftThreshold: t.settings.Report.SoftThreshold})
	opts := t.settings.Report

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully allocated %d/%d FSRs** (%d updated)\n\n",
		alloc.Allocated(), alloc.Total, changed)
	b.WriteString("## 📋 Allocation by Component\n\n")
	b.WriteString("| Component | Type | FSRs | ASIL Levels | Risk | FSR IDs |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range alloc.Components {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s |\n",
			cellText(c.Name), cellText(c.ComponentType), c.Count(), asilLabels(c.ASILs), c.Risk,
			aggregate.TruncateIDs(c.IDs(), idLimit(opts.IDLimit, aggregate.IDLimit)))
	}
	if len(alloc.Unallocated) > 0 {
		ids := make([]string, len(alloc.Unallocated))
		for i, f := range alloc.Unallocated {
			ids[i] = f.ID
		}
		fmt.Fprintf(&b, "| %s | - | %d | - | - | %s |\n", safety.Unallocated, len(ids),
			aggregate.TruncateIDs(ids, idLimit(opts.UnallocatedIDLimit, aggregate.UnallocatedIDLimit)))
	}

	b.WriteString("\n### 📊 Freedom From Interference\n\n")
	if mixed := alloc.Mixed(); len(mixed) == 0 {
		b.WriteString("- No ASIL mixing within a component\n")
	} else {
		for _, c := range mixed {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", c.Name, asilLabels(c.ASILs), c.Risk)
		}
	}
	writeValidation(&b, check)
	writeDiagnostics(&b, parsed.Diagnostics)

	return respond(ctx, t.store, t.log, sess, outcome{op: opFSRAllocation, stage: st.Stage, hasFSRs: true}, b.String()), nil
}

func asilLabels(levels []safety.ASIL) string {
	labels := make([]string, len(levels))
	for i, l := range levels {
		labels[i] = l.Label()
	}
	return strings.Join(labels, ", ")
}

func idLimit(configured, def int) int {
	if configured > 0 {
		return configured
	}
	return def
}
