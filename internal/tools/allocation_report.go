package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/render"
	"github.com/HendryAvila/fusadocs/internal/report"
)

const allocationReportPrefix = "Allocation_Report"

// AllocationReportTool handles the fusa_allocation_report MCP tool. It
// renders the plain-text allocation analysis and optionally saves it.
type AllocationReportTool struct {
	store    Store
	settings Settings
	observer ExportObserver
	log      *zap.Logger
}

// NewAllocationReportTool creates an AllocationReportTool. observer may be nil.
func NewAllocationReportTool(store Store, settings Settings, observer ExportObserver, log *zap.Logger) *AllocationReportTool {
	return &AllocationReportTool{store: store, settings: settings, observer: observer, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *AllocationReportTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_allocation_report",
		mcp.WithDescription(
			"Produce the FSR allocation analysis report: executive summary, allocation by "+
				"component, freedom from interference analysis and recommendations. "+
				"Set `save` to also write it as a text file.",
		),
		sessionArg(),
		mcp.WithBoolean("save",
			mcp.Description("Write the report to the output directory as well."),
		),
	)
}

// Handle processes the fusa_allocation_report tool call.
func (t *AllocationReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	ds, err := t.store.Dataset(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	if len(ds.FSRs) == 0 {
		return mcp.NewToolResultError("No FSRs in this session. Call `fusa_parse_fsrs` and `fusa_allocate` first."), nil
	}

	opts := t.settings.Report
	opts.Generated = timeNow()
	analysis := report.AllocationAnalysis(ds, opts)

	var b strings.Builder
	b.WriteString("```\n")
	b.WriteString(analysis)
	b.WriteString("```\n")

	if req.GetBool("save", false) {
		if t.settings.OutputDir == "" {
			return mcp.NewToolResultError("No output directory configured; cannot save the report."), nil
		}
		path, err := render.SaveText(t.settings.OutputDir, allocationReportPrefix, ds.System, opts.Generated, analysis)
		if err != nil {
			return nil, fmt.Errorf("saving allocation report: %w", err)
		}
		notifyExport(ctx, t.observer, sess.ID, "allocation_report", path, int64(len(analysis)))
		fmt.Fprintf(&b, "\n💾 Saved to `%s`\n", path)
	}

	return respond(ctx, t.store, t.log, sess, outcome{op: opAllocationReport, stage: sess.Stage, hasFSRs: true}, b.String()), nil
}
