package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// AdvanceTool handles the fusa_advance MCP tool. It marks workflow stages
// that have no parsing tool of their own, such as strategy development or
// validation criteria, as reached.
type AdvanceTool struct {
	store Store
	log   *zap.Logger
}

// NewAdvanceTool creates an AdvanceTool.
func NewAdvanceTool(store Store, log *zap.Logger) *AdvanceTool {
	return &AdvanceTool{store: store, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *AdvanceTool) Definition() mcp.Tool {
	names := make([]string, len(workflow.Stages))
	for i, s := range workflow.Stages {
		names[i] = string(s)
	}
	return mcp.NewTool("fusa_advance",
		mcp.WithDescription(
			"Move the session's workflow forward. With `stage`, jumps to that stage and marks "+
				"every earlier stage complete; stages already reached are left alone. Without "+
				"`stage`, advances by one.",
		),
		sessionArg(),
		mcp.WithString("stage",
			mcp.Description("Target stage. Omit to advance by one."),
			mcp.Enum(names...),
		),
	)
}

// Handle processes the fusa_advance tool call.
func (t *AdvanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	current, err := t.store.State(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading workflow state: %w", err)
	}

	var target workflow.Stage
	if raw := strings.TrimSpace(req.GetString("stage", "")); raw != "" {
		target, err = workflow.ParseStage(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		next, err := workflow.Next(current)
		if errors.Is(err, workflow.ErrFinalStage) {
			return mcp.NewToolResultError("The workflow is complete: the FSC document has been generated."), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		target = next.Stage
	}

	st, err := t.store.Advance(ctx, sess.ID, target)
	if err != nil {
		return nil, fmt.Errorf("advancing workflow: %w", err)
	}

	var b strings.Builder
	if st.Stage == current.Stage {
		fmt.Fprintf(&b, "Workflow already at **%s**; %s is not ahead of it.\n", st.Stage, target)
	} else {
		fmt.Fprintf(&b, "✅ **Successfully advanced** to **%s**\n", st.Stage)
		t.log.Info("workflow advanced", zap.String("session", sess.ID),
			zap.String("from", string(current.Stage)), zap.String("to", string(st.Stage)))
	}
	done, total := st.Progress()
	fmt.Fprintf(&b, "\nProgress: %d/%d stages\n", done, total)

	return respond(ctx, t.store, t.log, sess, outcome{op: opWorkflowAdvance, stage: st.Stage}, b.String()), nil
}
