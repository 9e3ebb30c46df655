package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/hooks"
	"github.com/HendryAvila/fusadocs/internal/logging"
)

// FormatResponseTool handles the fusa_format_response MCP tool. The host
// passes its own reply through it to apply the session's output format,
// export offers and next-steps footer.
type FormatResponseTool struct {
	store Store
	log   *zap.Logger
}

// NewFormatResponseTool creates a FormatResponseTool.
func NewFormatResponseTool(store Store, log *zap.Logger) *FormatResponseTool {
	return &FormatResponseTool{store: store, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *FormatResponseTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_format_response",
		mcp.WithDescription(
			"Post-process a reply before showing it to the user: applies the session's "+
				"output format (minimal strips markdown), offers document exports after FSR "+
				"derivation, allocation or verification, and appends workflow next steps. "+
				"The pending export offer is cleared once shown.",
		),
		sessionArg(),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The reply text to format."),
		),
	)
}

// Handle processes the fusa_format_response tool call.
func (t *FormatResponseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	content := req.GetString("content", "")

	ds, err := t.store.Dataset(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	out := hooks.ProcessReply(content, hooks.Context{
		OutputFormat:  sess.OutputFormat,
		LastOperation: sess.LastOperation,
		HasFSRs:       len(ds.FSRs) > 0,
		Stage:         sess.Stage,
	})
	t.log.Debug("formatted response",
		zap.String("session", sess.ID),
		zap.Int("in", len(content)), zap.Int("out", len(out)))

	if sess.LastOperation != "" && hooks.HasOffer(out) {
		if err := t.store.SetLastOperation(ctx, sess.ID, ""); err != nil {
			t.log.Warn("clear last operation", zap.String("session", sess.ID), zap.Error(err))
		}
	}
	return mcp.NewToolResultText(out), nil
}
