package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/tools"
)

// StatusPrompt handles the fusa-status MCP prompt.
// It embeds the current session report so the AI can present it.
type StatusPrompt struct {
	store tools.Store
}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt(store tools.Store) *StatusPrompt {
	return &StatusPrompt{store: store}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("fusa-status",
		mcp.WithPromptDescription(
			"Check a functional safety session: workflow progress, record counts, "+
				"exported documents and what to do next. Without a session, lists recent ones.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session to report on. Omit to list recent sessions."),
		),
	)
}

// Handle processes the fusa-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := ""
	if args := req.Params.Arguments; args != nil {
		id = strings.TrimSpace(args["session_id"])
	}

	var (
		report string
		err    error
	)
	if id == "" {
		report, err = tools.RecentSessions(ctx, p.store, 10)
	} else {
		report, err = tools.SessionStatus(ctx, p.store, id)
		if errors.Is(err, session.ErrNotFound) {
			report, err = fmt.Sprintf("Session %q not found.", id), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("building status: %w", err)
	}

	return &mcp.GetPromptResult{
		Description: "Functional Safety Session Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Here is the current state of my functional safety work:\n\n" +
						report + "\n\n" +
						"Please:\n" +
						"1. Summarize the progress in a clear, visual format\n" +
						"2. Highlight gaps such as unallocated FSRs or uncovered safety goals\n" +
						"3. Tell me exactly what I should do next\n" +
						"4. If documents were exported, list them",
				),
			},
		},
	}, nil
}
