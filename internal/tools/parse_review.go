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
)

// ParseReviewTool handles the fusa_parse_review MCP tool. It stores the
// findings of a HARA or item definition review.
type ParseReviewTool struct {
	store Store
	log   *zap.Logger
}

// NewParseReviewTool creates a ParseReviewTool.
func NewParseReviewTool(store Store, log *zap.Logger) *ParseReviewTool {
	return &ParseReviewTool{store: store, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("fusa_parse_review",
		mcp.WithDescription(
			"Parse a work-product review checklist. Each item starts with **ID:** and carries "+
				"Category, Requirement, Description, ISO Clause, Status (Pass/Fail/Partial Pass/"+
				"Not Applicable), Comment and Hint for improvement fields. Replaces earlier "+
				"findings of the same kind.",
		),
		sessionArg(),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Reviewed work product."),
			mcp.Enum(string(safety.ReviewHARA), string(safety.ReviewItemDefinition)),
		),
		textArg("review"),
	)
}

// Handle processes the fusa_parse_review tool call.
func (t *ParseReviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	kindArg, errRes := requireText(req, "kind")
	if errRes != nil {
		return errRes, nil
	}
	kind := safety.ReviewKind(strings.ToLower(strings.TrimSpace(kindArg)))
	if err := safety.ValidateReviewKind(kind); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, errRes := requireText(req, "text")
	if errRes != nil {
		return errRes, nil
	}

	parsed := parser.ParseReview(text)
	logDiagnostics(t.log, "fusa_parse_review", parsed.Diagnostics)
	check := validate.Reviews(parsed.Records)
	if !check.Valid {
		var b strings.Builder
		b.WriteString("Could not parse any review items. Start each item with a **ID:** line.\n")
		writeDiagnostics(&b, parsed.Diagnostics)
		return mcp.NewToolResultError(b.String()), nil
	}
	if err := t.store.SaveReviews(ctx, sess.ID, kind, parsed.Records); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	st, err := t.store.State(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading workflow state: %w", err)
	}

	stats := aggregate.ReviewSummary(parsed.Records)
	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully parsed %d review items** (%s)\n\n", stats.Total, kind)
	b.WriteString("## 📋 Review Summary\n\n")
	fmt.Fprintf(&b, "- Pass: %d\n- Fail: %d\n- Partial: %d\n- Not applicable: %d\n", stats.Pass, stats.Fail, stats.Partial, stats.NotApplicable)
	fmt.Fprintf(&b, "- Compliance: %.1f%% (%s)\n", stats.Compliance, stats.Assessment)

	b.WriteString("\n### 📊 By Category\n\n")
	b.WriteString("| Category | Total | Pass | Fail | Partial | N/A |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range aggregate.CategoryBreakdown(parsed.Records) {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d |\n", cellText(c.Category), c.Total, c.Pass, c.Fail, c.Partial, c.NotApplicable)
	}

	if attention := aggregate.NeedsAttention(parsed.Records); len(attention) > 0 {
		b.WriteString("\n### Needs Attention\n\n")
		for _, f := range attention {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", f.ID, f.Status, cellText(orText(f.Hint, f.Requirement)))
		}
	}
	writeValidation(&b, check)
	writeDiagnostics(&b, parsed.Diagnostics)

	return respond(ctx, t.store, t.log, sess, outcome{op: opReview, stage: st.Stage}, b.String()), nil
}

func orText(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
