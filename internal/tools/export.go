package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/render"
	"github.com/HendryAvila/fusadocs/internal/report"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// ExportTool handles the fusa_export MCP tool. It assembles a document
// from the session's records and writes it through a render sink.
type ExportTool struct {
	store    Store
	settings Settings
	observer ExportObserver
	log      *zap.Logger
}

// NewExportTool creates an ExportTool. observer may be nil.
func NewExportTool(store Store, settings Settings, observer ExportObserver, log *zap.Logger) *ExportTool {
	return &ExportTool{store: store, settings: settings, observer: observer, log: logging.OrNop(log)}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	kinds := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		kinds[i] = string(k)
	}
	return mcp.NewTool("fusa_export",
		mcp.WithDescription(
			"Generate a document from the session's records: hara, hara_review, "+
				"item_definition_review, fsr, allocation or fsc. Writes an Excel workbook "+
				"(format=xlsx, default) or a Markdown document (format=md). The records are "+
				"validated first; blocking errors stop the export.",
		),
		sessionArg(),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Document kind."),
			mcp.Enum(kinds...),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'xlsx' (default) or 'md'."),
			mcp.Enum("xlsx", "md"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory to write to. Defaults to the configured output directory."),
		),
	)
}

// Handle processes the fusa_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := loadSession(ctx, t.store, req)
	if res != nil || err != nil {
		return res, err
	}
	kindArg, errRes := requireText(req, "kind")
	if errRes != nil {
		return errRes, nil
	}
	kind, err := report.ParseKind(kindArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sink, err := render.ForFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir := strings.TrimSpace(req.GetString("output_dir", ""))
	if dir == "" {
		dir = t.settings.OutputDir
	}
	if dir == "" {
		return mcp.NewToolResultError("No output directory configured. Pass 'output_dir'."), nil
	}

	ds, err := t.store.Dataset(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	opts := t.settings.Report
	opts.Generated = timeNow()
	doc, check, err := report.Build(kind, ds, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !check.Valid {
		return validationError("generate "+kind.Title(), check), nil
	}

	path, err := render.Save(sink, dir, doc, opts.Generated)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", kind, err)
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	t.log.Info("document exported", zap.String("session", sess.ID), zap.String("kind", string(kind)),
		zap.String("path", path), zap.Int64("size", size))
	notifyExport(ctx, t.observer, sess.ID, string(kind), path, size)

	stage := sess.Stage
	if kind == report.KindFSC {
		st, err := t.store.Advance(ctx, sess.ID, workflow.StageFSCGenerated)
		if err != nil {
			return nil, fmt.Errorf("advancing workflow: %w", err)
		}
		stage = st.Stage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Successfully generated %s** for %s\n\n", doc.Title, doc.System)
	fmt.Fprintf(&b, "- **File:** `%s`\n", path)
	fmt.Fprintf(&b, "- **Size:** %s\n", humanize.Bytes(uint64(size)))
	names := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		names[i] = s.Name
	}
	fmt.Fprintf(&b, "- **Sections:** %s\n", strings.Join(names, ", "))
	writeValidation(&b, check)

	return respond(ctx, t.store, t.log, sess, outcome{op: opDocumentExport, stage: stage, hasFSRs: len(ds.FSRs) > 0}, b.String()), nil
}
