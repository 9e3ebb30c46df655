package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/fusadocs/internal/session"
)

// SetOutputFormatTool handles the fusa_set_output_format MCP tool.
type SetOutputFormatTool struct {
	store Store
}

// NewSetOutputFormatTool creates a SetOutputFormatTool.
func NewSetOutputFormatTool(store Store) *SetOutputFormatTool {
	return &SetOutputFormatTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *SetOutputFormatTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_set_output_format",
		mcp.WithDescription(
			"Choose how fusa_* responses are formatted for this session: 'standard' keeps "+
				"markdown tables and headings, 'minimal' converts them to plain text.",
		),
		sessionArg(),
		mcp.WithString("format",
			mcp.Required(),
			mcp.Enum(session.FormatStandard, session.FormatMinimal),
		),
	)
}

// Handle processes the fusa_set_output_format tool call.
func (t *SetOutputFormatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	format := strings.ToLower(strings.TrimSpace(req.GetString("format", "")))
	if format != session.FormatStandard && format != session.FormatMinimal {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid format %q: must be standard or minimal.", format)), nil
	}
	if err := t.store.SetOutputFormat(ctx, sess.ID, format); err != nil {
		return nil, fmt.Errorf("setting output format: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Output format set to **%s**.", format)), nil
}
