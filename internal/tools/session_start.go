package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/session"
)

// SessionStartTool handles the fusa_session_start MCP tool. It opens a new
// working-memory session, optionally seeded from a snapshot file.
type SessionStartTool struct {
	store    Store
	settings Settings
	log      *zap.Logger
}

// NewSessionStartTool creates a SessionStartTool.
func NewSessionStartTool(store Store, settings Settings, log *zap.Logger) *SessionStartTool {
	return &SessionStartTool{store: store, settings: settings, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_session_start",
		mcp.WithDescription(
			"Start a functional safety session for one system. Returns the session_id "+
				"every other fusa_* tool needs. Pass `snapshot_path` to import records from "+
				"a YAML or JSON snapshot instead of starting empty.",
		),
		mcp.WithString("system",
			mcp.Description("System or item name, e.g. 'Electric Power Steering'. Required unless snapshot_path is given."),
		),
		mcp.WithString("output_format",
			mcp.Description("Response format: 'standard' (markdown) or 'minimal' (plain text). Defaults to the configured format."),
			mcp.Enum(session.FormatStandard, session.FormatMinimal),
		),
		mcp.WithString("snapshot_path",
			mcp.Description("Path to a snapshot file (YAML or JSON) to import."),
		),
	)
}

// Handle processes the fusa_session_start tool call.
func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	system := strings.TrimSpace(req.GetString("system", ""))
	snapshotPath := strings.TrimSpace(req.GetString("snapshot_path", ""))
	format := strings.TrimSpace(req.GetString("output_format", ""))
	if format == "" {
		format = t.settings.DefaultOutput
	}
	if format == "" {
		format = session.FormatStandard
	}
	if format != session.FormatStandard && format != session.FormatMinimal {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid output_format %q: must be standard or minimal.", format)), nil
	}

	var (
		sess *session.Session
		err  error
	)
	switch {
	case snapshotPath != "":
		snap, readErr := session.ReadSnapshotFile(snapshotPath)
		if readErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cannot import snapshot: %v", readErr)), nil
		}
		if system != "" {
			snap.System = system
		}
		sess, err = t.store.ImportSnapshot(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("importing snapshot: %w", err)
		}
	case system != "":
		sess, err = t.store.CreateSession(ctx, system)
		if err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
	default:
		return mcp.NewToolResultError("'system' is required (or pass 'snapshot_path' to import one)."), nil
	}

	if format != sess.OutputFormat {
		if err := t.store.SetOutputFormat(ctx, sess.ID, format); err != nil {
			return nil, fmt.Errorf("setting output format: %w", err)
		}
		sess.OutputFormat = format
	}
	t.log.Info("session started", zap.String("session", sess.ID), zap.String("system", sess.System))

	var b strings.Builder
	b.WriteString("## 📋 Session Started\n\n")
	fmt.Fprintf(&b, "**Session:** `%s`\n", sess.ID)
	fmt.Fprintf(&b, "**System:** %s\n", orDash(sess.System))
	fmt.Fprintf(&b, "**Output format:** %s\n", sess.OutputFormat)

	if snapshotPath != "" {
		ds, err := t.store.Dataset(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("loading imported dataset: %w", err)
		}
		b.WriteString("\n### Imported Records\n\n")
		fmt.Fprintf(&b, "- Hazards: %d\n", len(ds.Hazards))
		fmt.Fprintf(&b, "- Safety goals: %d\n", len(ds.Goals))
		fmt.Fprintf(&b, "- FSRs: %d\n", len(ds.FSRs))
		fmt.Fprintf(&b, "- Safety mechanisms: %d\n", len(ds.Mechanisms))
		fmt.Fprintf(&b, "- Reviews: %d\n", len(ds.Reviews))
		if sess.Stage != "" {
			fmt.Fprintf(&b, "- Workflow stage: %s\n", sess.Stage)
		}
	}

	fmt.Fprintf(&b, "\nPass `session_id` to every fusa_* tool. Start with `fusa_parse_hara`.\n")
	return mcp.NewToolResultText(b.String()), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
