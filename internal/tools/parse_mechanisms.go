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

// ParseMechanismsTool handles the fusa_parse_mechanisms MCP tool.
type ParseMechanismsTool struct {
	store Store
	log   *zap.Logger
}

// NewParseMechanismsTool creates a ParseMechanismsTool.
func NewParseMechanismsTool(store Store, log *zap.Logger) *ParseMechanismsTool {
	return &ParseMechanismsTool{store: store, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseMechanismsTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_parse_mechanisms",
		mcp.WithDescription(
			"Parse safety mechanisms (SM-xxx blocks with Name, Category, Description, "+
				"Diagnostic Coverage, ASIL and Covered FSRs fields) and store them in the session.",
		),
		sessionArg(),
		textArg("safety mechanism"),
	)
}

// Handle processes the fusa_parse_mechanisms tool call.
func (t *ParseMechanismsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	parsed := parser.ParseMechanisms(text)
	logDiagnostics(t.log, "fusa_parse_mechanisms", parsed.Diagnostics)
	if len(parsed.Records) == 0 {
		var b strings.Builder
		b.WriteString("Could not parse any safety mechanisms. Start each one with an SM-xxx identifier.\n")
		writeDiagnostics(&b, parsed.Diagnostics)
		return mcp.NewToolResultError(b.String()), nil
	}

	if err := t.store.SaveDataset(ctx, sess.ID, safety.Dataset{Mechanisms: parsed.Records}); err != nil {
		return nil, fmt.Errorf("saving mechanisms: %w", err)
	}
	st, err := t.store.Advance(ctx, sess.ID, workflow.StageMechanismsIdentified)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully identified %d safety mechanisms**\n\n", len(parsed.Records))
	b.WriteString("## 📋 Safety Mechanisms\n\n")
	b.WriteString("| ID | Name | Category | Coverage | Covered FSRs |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, m := range parsed.Records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", m.ID, cellText(m.Name), m.Category,
			cellText(m.DiagnosticCoverage), aggregate.TruncateIDs(m.CoveredFSRs, aggregate.IDLimit))
	}

	if len(ds.FSRs) > 0 {
		tm := aggregate.TraceabilityMatrix(ds.FSRs, parsed.Records)
		fmt.Fprintf(&b, "\n### 📊 FSR Coverage\n\n- FSRs covered by a mechanism: %d/%d\n",
			len(ds.FSRs)-len(tm.Uncovered), len(ds.FSRs))
	}
	writeValidation(&b, validate.Mechanisms(parsed.Records, ds.FSRs))
	writeDiagnostics(&b, parsed.Diagnostics)

	return respond(ctx, t.store, t.log, sess, outcome{op: opMechanisms, stage: st.Stage, hasFSRs: len(ds.FSRs) > 0}, b.String()), nil
}
