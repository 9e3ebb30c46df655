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

// ParseHARATool handles the fusa_parse_hara MCP tool. It loads the hazard
// analysis and the safety goals derived from it into the session.
type ParseHARATool struct {
	store Store
	log   *zap.Logger
}

// NewParseHARATool creates a ParseHARATool.
func NewParseHARATool(store Store, log *zap.Logger) *ParseHARATool {
	return &ParseHARATool{store: store, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseHARATool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_parse_hara",
		mcp.WithDescription(
			"Parse a HARA table (ISO 26262-3 Clause 6) into hazard entries and safety goals. "+
				"Safety goals are derived from the 'Safety Goal' column unless `goals_text` "+
				"provides an explicit safety goal table. Replaces any HARA already in the session.",
		),
		sessionArg(),
		textArg("HARA table"),
		mcp.WithString("goals_text",
			mcp.Description("Optional safety goal table (ID | Goal | ASIL | Safe State | FTTI)."),
		),
	)
}

// Handle processes the fusa_parse_hara tool call.
func (t *ParseHARATool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	text, errRes := requireText(req, "text")
	if errRes != nil {
		return errRes, nil
	}

	parsed := parser.ParseHARA(text)
	logDiagnostics(t.log, "fusa_parse_hara", parsed.Diagnostics)
	check := validate.Hazards(parsed.Records)
	if !check.Valid {
		var b strings.Builder
		b.WriteString("Could not parse any hazard entries. Provide a markdown table whose header row starts with an ID column.\n")
		writeDiagnostics(&b, parsed.Diagnostics)
		return mcp.NewToolResultError(b.String()), nil
	}

	goals := parser.DeriveGoals(parsed.Records)
	var goalDiags []parser.Diagnostic
	if gt := strings.TrimSpace(req.GetString("goals_text", "")); gt != "" {
		explicit := parser.ParseGoals(gt)
		goalDiags = explicit.Diagnostics
		if len(explicit.Records) > 0 {
			goals = explicit.Records
		}
	}

	ds := safety.Dataset{Hazards: parsed.Records, Goals: goals}
	if err := t.store.SaveDataset(ctx, sess.ID, ds); err != nil {
		return nil, fmt.Errorf("saving HARA: %w", err)
	}
	st, err := t.store.Advance(ctx, sess.ID, workflow.StageHARALoaded)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully loaded HARA** for %s\n\n", orDash(sess.System))
	fmt.Fprintf(&b, "- Hazard entries: %d\n", len(parsed.Records))
	fmt.Fprintf(&b, "- Safety goals: %d\n", len(goals))
	b.WriteString("\n## 📋 Safety Goals\n\n")
	b.WriteString("| ID | Safety Goal | ASIL | Safe State | FTTI |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", g.ID, cellText(g.Statement), g.ASIL.Label(), cellText(g.SafeState), cellText(g.FTTI))
	}
	b.WriteString("\n### 📊 ASIL Distribution\n\n")
	for _, s := range aggregate.ASILDistribution(parsed.Records, func(h safety.HazardEntry) safety.ASIL { return h.ASIL }) {
		fmt.Fprintf(&b, "- %s: %d (%s)\n", s.Key.Label(), s.Count, s.PercentString(len(parsed.Records)))
	}
	writeValidation(&b, check)
	writeDiagnostics(&b, append(parsed.Diagnostics, goalDiags...))

	return respond(ctx, t.store, t.log, sess, outcome{op: opHARALoaded, stage: st.Stage}, b.String()), nil
}

// cellText makes s safe inside a markdown table cell.
func cellText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
