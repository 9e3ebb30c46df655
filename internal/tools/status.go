package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// StatusTool handles the fusa_status MCP tool.
type StatusTool struct {
	store Store
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(store Store) *StatusTool {
	return &StatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_status",
		mcp.WithDescription(
			"Show a session's workflow progress, record counts and exported documents. "+
				"Without `session_id`, lists the most recent sessions.",
		),
		mcp.WithString(sessionIDArg,
			mcp.Description("Session to inspect. If omitted, recent sessions are listed."),
		),
	)
}

// Handle processes the fusa_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(req.GetString(sessionIDArg, "")) == "" {
		text, err := RecentSessions(ctx, t.store, 10)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	}
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	text, err := SessionStatus(ctx, t.store, sess.ID)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

// RecentSessions renders the latest sessions as a markdown table.
func RecentSessions(ctx context.Context, store Store, limit int) (string, error) {
	sessions, err := store.RecentSessions(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "No sessions yet. Start one with `fusa_session_start`.", nil
	}
	var b strings.Builder
	b.WriteString("## 📋 Recent Sessions\n\n")
	b.WriteString("| Session | System | Stage | Updated |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", s.ID, cellText(s.System), orDash(string(s.Stage)), since(s.UpdatedAt))
	}
	return b.String(), nil
}

// SessionStatus renders the progress report of one session.
func SessionStatus(ctx context.Context, store Store, id string) (string, error) {
	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	ds, err := store.Dataset(ctx, id)
	if err != nil {
		return "", fmt.Errorf("loading dataset: %w", err)
	}
	st, err := store.State(ctx, id)
	if err != nil {
		return "", fmt.Errorf("loading workflow state: %w", err)
	}
	docs, err := store.Documents(ctx, id)
	if err != nil {
		return "", fmt.Errorf("listing documents: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# FSC Status: %s\n\n", orDash(sess.System))
	fmt.Fprintf(&b, "**Session:** `%s`\n", sess.ID)
	fmt.Fprintf(&b, "**Output format:** %s\n", sess.OutputFormat)
	done, total := st.Progress()
	fmt.Fprintf(&b, "**Progress:** %d/%d stages\n\n", done, total)

	b.WriteString("## Workflow\n\n")
	b.WriteString("| Stage | Status | Completed |\n")
	b.WriteString("|---|---|---|\n")
	for _, s := range workflow.Stages {
		marker, at := "⬜", "-"
		if st.IsComplete(s) {
			marker, at = "✅", st.Completed[s]
		}
		if s == st.Stage {
			marker = "📍"
		}
		fmt.Fprintf(&b, "| %s %s | %s | %s |\n", marker, s, statusWord(st, s), at)
	}

	b.WriteString("\n## Records\n\n")
	fmt.Fprintf(&b, "- Hazards: %d\n", len(ds.Hazards))
	fmt.Fprintf(&b, "- Safety goals: %d\n", len(ds.Goals))
	fmt.Fprintf(&b, "- FSRs: %d\n", len(ds.FSRs))
	if len(ds.FSRs) > 0 {
		alloc := aggregate.AllocationRecords(ds.FSRs)
		fmt.Fprintf(&b, "- Allocated: %d/%d (%s)\n", alloc.Allocated(), alloc.Total, aggregate.Percent(alloc.Allocated(), alloc.Total))
	}
	fmt.Fprintf(&b, "- Safety mechanisms: %d\n", len(ds.Mechanisms))
	for _, kind := range []safety.ReviewKind{safety.ReviewHARA, safety.ReviewItemDefinition} {
		findings, ok := ds.Reviews[kind]
		if !ok {
			continue
		}
		stats := aggregate.ReviewSummary(findings)
		fmt.Fprintf(&b, "- Review %s: %d items, %.1f%% compliance\n", kind, stats.Total, stats.Compliance)
	}

	if len(docs) > 0 {
		b.WriteString("\n## Documents\n\n")
		b.WriteString("| Kind | File | Size | Created |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n", d.Kind, d.Path, humanize.Bytes(uint64(d.Size)), since(d.CreatedAt))
		}
	}

	if g, ok := workflow.GuidanceFor(st.Stage); ok {
		fmt.Fprintf(&b, "\n**Next:** `%s`\n", g.Next)
	} else if !st.Started() {
		b.WriteString("\n**Next:** `fusa_parse_hara`\n")
	}
	return b.String(), nil
}

func statusWord(st workflow.State, s workflow.Stage) string {
	switch {
	case s == st.Stage:
		return "current"
	case st.IsComplete(s):
		return "completed"
	default:
		return "pending"
	}
}

// since renders an RFC 3339 timestamp relative to now, or as-is when it
// does not parse.
func since(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return orDash(ts)
	}
	return humanize.RelTime(t, timeNow(), "ago", "from now")
}
