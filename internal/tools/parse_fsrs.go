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

// ParseFSRsTool handles the fusa_parse_fsrs MCP tool. It parses derived
// functional safety requirements against the session's safety goals.
type ParseFSRsTool struct {
	store    Store
	settings Settings
	log      *zap.Logger
}

// NewParseFSRsTool creates a ParseFSRsTool.
func NewParseFSRsTool(store Store, settings Settings, log *zap.Logger) *ParseFSRsTool {
	return &ParseFSRsTool{store: store, settings: settings, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseFSRsTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_parse_fsrs",
		mcp.WithDescription(
			"Parse functional safety requirements (ISO 26262-3 Clause 7) derived for the "+
				"session's safety goals. Accepts an FSR table or 'FSRs for Safety Goal: SG-xxx' "+
				"sections with **FSR-...** blocks. ASIL, timing and safe state are inherited "+
				"from the goal. Replaces any FSRs already in the session.",
		),
		sessionArg(),
		textArg("FSR"),
	)
}

// Handle processes the fusa_parse_fsrs tool call.
func (t *ParseFSRsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	if len(ds.Goals) == 0 {
		return mcp.NewToolResultError("No safety goals in this session. Load the HARA with `fusa_parse_hara` first."), nil
	}

	parsed := parser.ParseFSRs(text, ds.Goals)
	logDiagnostics(t.log, "fusa_parse_fsrs", parsed.Diagnostics)
	check := validate.FSRs(ds.Goals, parsed.Records, validate.Options{SoftThreshold: t.settings.Report.SoftThreshold})
	if len(parsed.Records) == 0 {
		var b strings.Builder
		b.WriteString("Could not parse any FSRs. Use an FSR table or **FSR-SG-xxx-TYP-n** blocks under 'FSRs for Safety Goal:' headings.\n")
		writeDiagnostics(&b, parsed.Diagnostics)
		return mcp.NewToolResultError(b.String()), nil
	}

	if err := t.store.SaveDataset(ctx, sess.ID, safety.Dataset{FSRs: parsed.Records}); err != nil {
		return nil, fmt.Errorf("saving FSRs: %w", err)
	}
	st, err := t.store.Advance(ctx, sess.ID, workflow.StageFSRsDerived)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully derived %d FSRs** for %d safety goals\n\n", len(parsed.Records), len(ds.Goals))
	b.WriteString("## 📋 Functional Safety Requirements\n\n")
	b.WriteString("| FSR-ID | Type | ASIL | Safety Goal | Description |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, f := range parsed.Records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			f.ID, f.Type, f.ASIL.Label(), strings.Join(f.SafetyGoalIDs, ", "), cellText(f.Description))
	}

	cov := aggregate.GoalCoverage(ds.Goals, parsed.Records)
	b.WriteString("\n### 📊 Coverage\n\n")
	fmt.Fprintf(&b, "- Safety goals covered: %d/%d (%.1f%%)\n", cov.Covered, cov.Total, cov.Percent)
	for _, s := range aggregate.Distribution(parsed.Records, func(f safety.FSR) safety.FSRType { return f.Type }, nil) {
		fmt.Fprintf(&b, "- %s: %d\n", s.Key, s.Count)
	}
	writeValidation(&b, check)
	writeDiagnostics(&b, parsed.Diagnostics)

	return respond(ctx, t.store, t.log, sess, outcome{op: opFSRDerivation, stage: st.Stage, hasFSRs: true}, b.String()), nil
}
