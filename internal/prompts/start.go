// Package prompts implements MCP prompt handlers for the fusadocs workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the fusa-start MCP prompt.
// It guides the AI to open a session and begin the hazard analysis.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("fusa-start",
		mcp.WithPromptDescription(
			"Start the functional safety concept for a system: opens a session and "+
				"walks through HARA, FSR derivation, allocation, mechanisms and verification.",
		),
		mcp.WithArgument("system",
			mcp.ArgumentDescription("System or item name, e.g. 'Electric Power Steering'"),
		),
		mcp.WithArgument("snapshot_path",
			mcp.ArgumentDescription("Optional snapshot file (YAML or JSON) to resume from"),
		),
	)
}

// Handle processes the fusa-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	system := "my system"
	snapshot := ""
	if args := req.Params.Arguments; args != nil {
		if v := strings.TrimSpace(args["system"]); v != "" {
			system = v
		}
		snapshot = strings.TrimSpace(args["snapshot_path"])
	}

	first := fmt.Sprintf("Run `fusa_session_start` with system='%s'.", system)
	if snapshot != "" {
		first = fmt.Sprintf("Run `fusa_session_start` with system='%s' and snapshot_path='%s', then show me what was imported.", system, snapshot)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start functional safety concept: %s", system),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to build the ISO 26262 functional safety concept for '%s'.\n\n"+
						"Please:\n"+
						"1. %s\n"+
						"2. Ask me about the item's functions and operating situations\n"+
						"3. Write the HARA table with me and load it with `fusa_parse_hara`\n"+
						"4. Guide me through FSR derivation, allocation, safety mechanisms and verification, following each tool's Next Steps\n"+
						"5. Pass your own replies through `fusa_format_response`",
					system, first,
				)),
			},
		},
	}, nil
}
