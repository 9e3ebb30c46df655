// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the session store, builds the
// tools, prompts and resources, and injects their dependencies. No
// business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/config"
	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/prompts"
	"github.com/HendryAvila/fusadocs/internal/resources"
	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name announced to hosts.
const Name = "fusadocs"

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function closes the session store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, log *zap.Logger) (*server.MCPServer, func(), error) {
	log = logging.OrNop(log)

	store, err := session.New(session.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, noop, fmt.Errorf("opening session store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("session store close", zap.Error(err))
		}
	}
	log.Info("session store opened", zap.String("data_dir", store.DataDir()))

	settings := tools.SettingsFromConfig(cfg)

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// Exported documents are appended to the session's history so
	// fusa_status and the status resource can list them.
	bridge := tools.NewHistoryBridge(store, log.Named("history"))
	toolLog := log.Named("tools")

	// --- Session ---

	sessionStart := tools.NewSessionStartTool(store, settings, toolLog)
	s.AddTool(sessionStart.Definition(), sessionStart.Handle)

	setFormat := tools.NewSetOutputFormatTool(store)
	s.AddTool(setFormat.Definition(), setFormat.Handle)

	status := tools.NewStatusTool(store)
	s.AddTool(status.Definition(), status.Handle)

	advance := tools.NewAdvanceTool(store, toolLog)
	s.AddTool(advance.Definition(), advance.Handle)

	// --- Parsing ---

	parseHARA := tools.NewParseHARATool(store, toolLog)
	s.AddTool(parseHARA.Definition(), parseHARA.Handle)

	parseFSRs := tools.NewParseFSRsTool(store, settings, toolLog)
	s.AddTool(parseFSRs.Definition(), parseFSRs.Handle)

	allocate := tools.NewAllocateTool(store, settings, toolLog)
	s.AddTool(allocate.Definition(), allocate.Handle)

	parseMechanisms := tools.NewParseMechanismsTool(store, toolLog)
	s.AddTool(parseMechanisms.Definition(), parseMechanisms.Handle)

	parseReview := tools.NewParseReviewTool(store, toolLog)
	s.AddTool(parseReview.Definition(), parseReview.Handle)

	// --- Verification and documents ---

	validate := tools.NewValidateTool(store, settings, toolLog)
	s.AddTool(validate.Definition(), validate.Handle)

	export := tools.NewExportTool(store, settings, bridge, toolLog)
	s.AddTool(export.Definition(), export.Handle)

	allocationReport := tools.NewAllocationReportTool(store, settings, bridge, toolLog)
	s.AddTool(allocationReport.Definition(), allocationReport.Handle)

	formatResponse := tools.NewFormatResponseTool(store, toolLog)
	s.AddTool(formatResponse.Definition(), formatResponse.Handle)

	// --- Prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt(store)
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)
	s.AddResourceTemplate(resourceHandler.StatusTemplate(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the host how to drive the fusa_* tools.
func serverInstructions() string {
	return heredoc.Doc(`
		You have access to fusadocs, an ISO 26262 functional safety documentation server.

		## CRITICAL: How Tools Work
		fusadocs tools are PARSING and STORAGE tools, not AI tools. YOU write the safety
		analysis content; the tools parse it into records, validate it, and export documents.

		1. TALK to the user about the item and its hazards
		2. GENERATE the content yourself (HARA table, FSRs, allocation, mechanisms)
		3. CALL the matching fusa_* tool with that text
		4. Show the tool's response, then follow its Next Steps

		Never call a tool with placeholder text like "TBD".

		## Workflow
		1. fusa_session_start: one session per system. Keep the returned session_id.
		2. fusa_parse_hara: HARA table (Hazard ID | Function | Malfunction | Hazard |
		   Situation | S | E | C | ASIL | Safety Goal | Safe State | FTTI).
		3. Develop safety strategies with the user, then fusa_advance.
		4. fusa_parse_fsrs: FSRs grouped under "FSRs for Safety Goal: SG-xxx" headings,
		   each starting with **FSR-SG-xxx-TYP-n**, or one FSR table.
		5. fusa_allocate: FSR ID | Allocated To | Component Type | Rationale | Interface.
		6. fusa_parse_mechanisms: SM-xxx blocks with Covered FSRs.
		7. Specify validation criteria, then fusa_advance.
		8. fusa_validate: FSC verification checklist.
		9. fusa_export kind=fsc: the Functional Safety Concept workbook.

		Reviews of the HARA or the item definition can be loaded at any time with
		fusa_parse_review and exported with kind=hara_review or kind=item_definition_review.

		## Formatting
		Pass your own replies through fusa_format_response. It applies the session's
		output format (fusa_set_output_format), offers document exports once after FSR
		derivation, allocation and verification, and appends next steps.

		## Status
		fusa_status lists recent sessions or shows one session's progress and exported
		documents. The same report is available as the resource fusa://session/{id}/status.
	`)
}
