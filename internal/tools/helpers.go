// Package tools implements the fusa_* MCP tool handlers.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle method compatible with mcp-go's tool handler
// signature. User-correctable problems come back as tool error results;
// store and sink failures come back as Go errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/config"
	"github.com/HendryAvila/fusadocs/internal/hooks"
	"github.com/HendryAvila/fusadocs/internal/parser"
	"github.com/HendryAvila/fusadocs/internal/report"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/validate"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// timeNow is swapped by tests to freeze export timestamps.
var timeNow = time.Now

// Store is the session storage the tools depend on. *session.Store
// implements it.
type Store interface {
	CreateSession(ctx context.Context, system string) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	RecentSessions(ctx context.Context, limit int) ([]session.Session, error)
	SetOutputFormat(ctx context.Context, id, format string) error
	SetLastOperation(ctx context.Context, id, op string) error
	Dataset(ctx context.Context, id string) (safety.Dataset, error)
	SaveDataset(ctx context.Context, id string, ds safety.Dataset) error
	SaveReviews(ctx context.Context, id string, kind safety.ReviewKind, findings []safety.ReviewFinding) error
	State(ctx context.Context, id string) (workflow.State, error)
	Advance(ctx context.Context, id string, stage workflow.Stage) (workflow.State, error)
	ImportSnapshot(ctx context.Context, snap session.Snapshot) (*session.Session, error)
	RecordDocument(ctx context.Context, sessionID, kind, path string, size int64) (*session.Document, error)
	Documents(ctx context.Context, sessionID string) ([]session.Document, error)
}

var _ Store = (*session.Store)(nil)

// Settings are the configuration values the tools read.
type Settings struct {
	OutputDir     string
	DefaultOutput string
	Report        report.Options
}

// SettingsFromConfig extracts tool settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		OutputDir:     cfg.OutputDir,
		DefaultOutput: cfg.Format.DefaultOutput,
		Report: report.Options{
			IDLimit:            cfg.Export.IDLimit,
			UnallocatedIDLimit: cfg.Export.UnallocatedIDLimit,
			SoftThreshold:      cfg.Validation.AllocationSoftThreshold,
		},
	}
}

// Last operations recorded on the session. Three of them drive export
// offers in the response hook.
const (
	opHARALoaded       = "hara_loaded"
	opFSRDerivation    = hooks.OpFSRDerivation
	opFSRAllocation    = hooks.OpFSRAllocation
	opMechanisms       = "mechanism_identification"
	opReview           = "review"
	opFSCVerification  = hooks.OpFSCVerification
	opDocumentExport   = "document_export"
	opAllocationReport = "allocation_report"
	opWorkflowAdvance  = "workflow_advance"
)

const (
	sessionIDArg         = "session_id"
	sessionIDDescription = "Session ID returned by fusa_session_start."
)

func textArg(what string) mcp.ToolOption {
	return mcp.WithString("text",
		mcp.Required(),
		mcp.Description(fmt.Sprintf("LLM-generated %s text to parse (markdown table or bold-label blocks).", what)),
	)
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString(sessionIDArg, mcp.Required(), mcp.Description(sessionIDDescription))
}

// loadSession resolves the session_id argument. A missing or unknown id
// yields a tool error result; store failures yield a Go error.
func loadSession(ctx context.Context, store Store, req mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult, error) {
	id, err := req.RequireString(sessionIDArg)
	if err != nil || strings.TrimSpace(id) == "" {
		return nil, mcp.NewToolResultError("'session_id' is required. Start one with `fusa_session_start`."), nil
	}
	sess, err := store.GetSession(ctx, strings.TrimSpace(id))
	if errors.Is(err, session.ErrNotFound) {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Session %q not found. Start one with `fusa_session_start`.", id)), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil, nil
}

// requireText returns a non-blank string argument or a tool error result.
func requireText(req mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	v, err := req.RequireString(name)
	if err != nil || strings.TrimSpace(v) == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required and must not be empty.", name))
	}
	return v, nil
}

// outcome is what a tool call leaves behind for the response hook.
type outcome struct {
	op      string
	stage   workflow.Stage
	hasFSRs bool
}

// respond records the outcome's operation as the session's last operation
// and runs content through the response hook. Bookkeeping failures are
// logged, not returned.
func respond(ctx context.Context, store Store, log *zap.Logger, sess *session.Session, out outcome, content string) *mcp.CallToolResult {
	if out.op != "" {
		if err := store.SetLastOperation(ctx, sess.ID, out.op); err != nil {
			log.Warn("set last operation", zap.String("session", sess.ID), zap.String("op", out.op), zap.Error(err))
		}
	}
	return mcp.NewToolResultText(hooks.Process(content, hooks.Context{
		OutputFormat:  sess.OutputFormat,
		LastOperation: out.op,
		HasFSRs:       out.hasFSRs,
		Stage:         out.stage,
	}))
}

// ─── Markdown fragments ──────────────────────────────────────────────────────

func writeValidation(b *strings.Builder, res validate.Result) {
	if len(res.Errors) > 0 {
		b.WriteString("\n### ❌ Errors\n\n")
		for _, e := range res.Errors {
			fmt.Fprintf(b, "- %s\n", e)
		}
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\n### ⚠️ Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
	}
}

func writeDiagnostics(b *strings.Builder, diags []parser.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	b.WriteString("\n### 🔎 Parser Notes\n\n")
	for _, d := range diags {
		fmt.Fprintf(b, "- %s\n", d)
	}
}

// validationError turns a blocking validation result into a tool error.
func validationError(what string, res validate.Result) *mcp.CallToolResult {
	var b strings.Builder
	fmt.Fprintf(&b, "Cannot %s: insufficient data.\n", what)
	writeValidation(&b, res)
	return mcp.NewToolResultError(b.String())
}

// noStructure reports whether the parser recognized no records at all.
func noStructure(diags []parser.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind == parser.DiagNoStructure {
			return true
		}
	}
	return false
}

func logDiagnostics(log *zap.Logger, tool string, diags []parser.Diagnostic) {
	if len(diags) > 0 {
		log.Debug("parser diagnostics", zap.String("tool", tool), zap.Int("count", len(diags)))
	}
}
