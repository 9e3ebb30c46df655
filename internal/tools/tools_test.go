package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/HendryAvila/fusadocs/internal/report"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

func init() {
	timeNow = func() time.Time { return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC) }
}

// --- fixtures ---

var haraText = heredoc.Doc(`
	| Hazard ID | Function | Malfunctioning Behavior | Hazardous Event | Operational Situation | Severity (S) | Exposure (E) | Controllability (C) | ASIL | Safety Goal | Safe State | FTTI |
	|---|---|---|---|---|---|---|---|---|---|---|---|
	| HAZ-001 | Braking | Unintended braking | Rear-end collision | Highway | S3 | E4 | C3 | ASIL D | SG-001: Avoid unintended braking | Brake released | 100 ms |
	| HAZ-002 | Braking | Loss of braking | Collision | Urban | S2 | E3 | C2 | B | SG-002: Avoid loss of braking | Degraded braking | 200 ms |
`)

var fsrText = heredoc.Doc(`
	## FSRs for Safety Goal: SG-001

	**FSR-SG-001-DET-1**
	- **Description:** The system shall detect implausible wheel speed.
	- **Verification Criteria:** Fault injection test

	**FSR-SG-001-SST-1**
	- **Description:** The system shall release the brake.

	## FSRs for Safety Goal: SG-002

	**FSR-SG-002-WRN-1**
	- **Description:** The system shall warn the driver.
`)

var allocationText = heredoc.Doc(`
	| FSR ID | Allocated To | Component Type | Rationale | Interface |
	|---|---|---|---|---|
	| FSR-SG-001-DET-1 | Brake ECU | Hardware | Sensor access | CAN |
	| FSR-SG-001-SST-1 | Brake ECU | Software | Actuator owner | CAN |
	| FSR-SG-002-WRN-1 | Instrument Cluster | Software | Driver display | CAN |
`)

var mechanismText = heredoc.Doc(`
	### SM-001: Wheel speed plausibility
	- **Name:** Wheel speed plausibility check
	- **Category:** Detection
	- **Diagnostic Coverage:** 99%
	- **Covered FSRs:** FSR-SG-001-DET-1, FSR-SG-001-SST-1, FSR-SG-002-WRN-1
`)

var reviewText = heredoc.Doc(`
	**ID:** HR-001
	**Category:** Identification and Classification
	**Requirement:** Hazards shall be identified
	**Status:** Pass

	**ID:** HR-002
	**Category:** Functional Description
	**Requirement:** Functions shall be described
	**Status:** Fail
	**Hint for improvement:** Describe the braking modes.
`)

// --- helpers ---

type testEnv struct {
	store    *session.Store
	settings Settings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := session.New(session.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &testEnv{
		store: store,
		settings: Settings{
			OutputDir:     filepath.Join(t.TempDir(), "documents"),
			DefaultOutput: session.FormatStandard,
			Report:        report.DefaultOptions(),
		},
	}
}

type handler interface {
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func mustSucceed(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	require.False(t, isErrorResult(result), "unexpected error: %s", getResultText(result))
	return getResultText(result)
}

func mustFail(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	require.True(t, isErrorResult(result), "expected error, got: %s", getResultText(result))
	return getResultText(result)
}

// isErrorResult checks if a CallToolResult represents an error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func (e *testEnv) startSession(t *testing.T) string {
	t.Helper()
	sess, err := e.store.CreateSession(context.Background(), "Brake System")
	require.NoError(t, err)
	return sess.ID
}

// loadThroughAllocation runs the parsing tools up to allocation.
func (e *testEnv) loadThroughAllocation(t *testing.T, id string) {
	t.Helper()
	mustSucceed(t, NewParseHARATool(e.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	mustSucceed(t, NewParseFSRsTool(e.store, e.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})
	mustSucceed(t, NewAllocateTool(e.store, e.settings, nil), map[string]interface{}{"session_id": id, "text": allocationText})
}

// --- definitions ---

func TestDefinitions_Names(t *testing.T) {
	env := newTestEnv(t)
	bridge := NewHistoryBridge(env.store, nil)
	defs := map[string]mcp.Tool{
		"fusa_session_start":     NewSessionStartTool(env.store, env.settings, nil).Definition(),
		"fusa_parse_hara":        NewParseHARATool(env.store, nil).Definition(),
		"fusa_parse_fsrs":        NewParseFSRsTool(env.store, env.settings, nil).Definition(),
		"fusa_allocate":          NewAllocateTool(env.store, env.settings, nil).Definition(),
		"fusa_parse_mechanisms":  NewParseMechanismsTool(env.store, nil).Definition(),
		"fusa_parse_review":      NewParseReviewTool(env.store, nil).Definition(),
		"fusa_validate":          NewValidateTool(env.store, env.settings, nil).Definition(),
		"fusa_export":            NewExportTool(env.store, env.settings, bridge, nil).Definition(),
		"fusa_allocation_report": NewAllocationReportTool(env.store, env.settings, bridge, nil).Definition(),
		"fusa_format_response":   NewFormatResponseTool(env.store, nil).Definition(),
		"fusa_set_output_format": NewSetOutputFormatTool(env.store).Definition(),
		"fusa_status":            NewStatusTool(env.store).Definition(),
		"fusa_advance":           NewAdvanceTool(env.store, nil).Definition(),
	}
	for name, def := range defs {
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Description, name)
	}
}

// --- session start ---

func TestSessionStartTool_Handle_Success(t *testing.T) {
	env := newTestEnv(t)
	text := mustSucceed(t, NewSessionStartTool(env.store, env.settings, nil), map[string]interface{}{
		"system": "Electric Power Steering",
	})

	assert.Contains(t, text, "Session Started")
	assert.Contains(t, text, "Electric Power Steering")

	sessions, err := env.store.RecentSessions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Contains(t, text, sessions[0].ID)
	assert.Equal(t, session.FormatStandard, sessions[0].OutputFormat)
}

func TestSessionStartTool_Handle_DefaultFormatFromSettings(t *testing.T) {
	env := newTestEnv(t)
	env.settings.DefaultOutput = session.FormatMinimal
	mustSucceed(t, NewSessionStartTool(env.store, env.settings, nil), map[string]interface{}{"system": "X"})

	sessions, err := env.store.RecentSessions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, session.FormatMinimal, sessions[0].OutputFormat)
}

func TestSessionStartTool_Handle_Errors(t *testing.T) {
	env := newTestEnv(t)
	tool := NewSessionStartTool(env.store, env.settings, nil)

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{}), "'system' is required")
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"system": "X", "output_format": "fancy"}), "Invalid output_format")
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"snapshot_path": "/nonexistent/snap.yaml"}), "Cannot import snapshot")
}

func TestSessionStartTool_Handle_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "brake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(heredoc.Doc(`
		version: 1
		system: Brake System
		goals:
		  - id: SG-001
		    statement: Avoid unintended braking
		    asil: D
		fsrs:
		  - id: FSR-SG-001-DET-1
		    description: Detect implausible wheel speed
		    type: Fault Detection
		    asil: D
		    safety_goal_ids: [SG-001]
		workflow:
		  stage: fsrs_derived
	`)), 0o644))

	text := mustSucceed(t, NewSessionStartTool(env.store, env.settings, nil), map[string]interface{}{
		"snapshot_path": path,
	})
	assert.Contains(t, text, "Brake System")
	assert.Contains(t, text, "- Safety goals: 1")
	assert.Contains(t, text, "- FSRs: 1")
	assert.Contains(t, text, "- Workflow stage: fsrs_derived")
}

// --- missing session ---

func TestTools_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	tools := []handler{
		NewParseHARATool(env.store, nil),
		NewParseFSRsTool(env.store, env.settings, nil),
		NewExportTool(env.store, env.settings, nil, nil),
		NewAdvanceTool(env.store, nil),
	}
	for _, tool := range tools {
		text := mustFail(t, tool, map[string]interface{}{"session_id": "nope", "text": "x", "kind": "fsr"})
		assert.Contains(t, text, `Session "nope" not found`)

		text = mustFail(t, tool, map[string]interface{}{})
		assert.Contains(t, text, "'session_id' is required")
	}
}

// --- parsing ---

func TestParseHARATool_Handle_Success(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	text := mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})

	assert.Contains(t, text, "✅ **Successfully loaded HARA**")
	assert.Contains(t, text, "- Hazard entries: 2")
	assert.Contains(t, text, "| SG-001 | Avoid unintended braking | ASIL D | Brake released | 100 ms |")
	assert.Contains(t, text, "### 🚀 Next Steps")

	ds, err := env.store.Dataset(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, ds.Hazards, 2)
	assert.Len(t, ds.Goals, 2)

	st, err := env.store.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageHARALoaded, st.Stage)
}

func TestParseHARATool_Handle_ExplicitGoals(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{
		"session_id": id,
		"text":       haraText,
		"goals_text": "| ID | Safety Goal | ASIL |\n|---|---|---|\n| SG-001 | Prevent any unintended braking | D |\n",
	})

	ds, err := env.store.Dataset(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, ds.Goals, 1)
	assert.Equal(t, "Prevent any unintended braking", ds.Goals[0].Statement)
}

func TestParseHARATool_Handle_NoTable(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	text := mustFail(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": "no table here"})
	assert.Contains(t, text, "Could not parse any hazard entries")

	text = mustFail(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": "  "})
	assert.Contains(t, text, "'text' is required")
}

func TestParseFSRsTool_Handle_RequiresGoals(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	text := mustFail(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})
	assert.Contains(t, text, "fusa_parse_hara")
}

func TestParseFSRsTool_Handle_Success(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})

	text := mustSucceed(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})

	assert.Contains(t, text, "Successfully derived 3 FSRs")
	assert.Contains(t, text, "FSR-ID | Type | ASIL")
	assert.Contains(t, text, "| FSR-SG-001-DET-1 | Fault Detection | ASIL D | SG-001 |")
	assert.Contains(t, text, "- Safety goals covered: 2/2 (100.0%)")
	assert.Contains(t, text, "💾 **Generate Documents:**")
	assert.Contains(t, text, "Excel spreadsheet with FSR table")

	sess, err := env.store.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, opFSRDerivation, sess.LastOperation)
	assert.Equal(t, workflow.StageFSRsDerived, sess.Stage)
}

func TestParseFSRsTool_Handle_NothingParsed(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})

	text := mustFail(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": "Just prose."})
	assert.Contains(t, text, "Could not parse any FSRs")
}

func TestAllocateTool_Handle_Success(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	mustSucceed(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})

	text := mustSucceed(t, NewAllocateTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": allocationText})

	assert.Contains(t, text, "Successfully allocated 3/3 FSRs")
	assert.Contains(t, text, "| Brake ECU |")
	assert.Contains(t, text, "Excel allocation matrix")

	ds, err := env.store.Dataset(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Instrument Cluster", ds.FSRs[2].AllocatedTo)
	assert.Equal(t, "Actuator owner", ds.FSRs[1].AllocationRationale)
}

func TestAllocateTool_Handle_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	tool := NewAllocateTool(env.store, env.settings, nil)

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "text": allocationText}), "No FSRs")

	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	mustSucceed(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "text": "nothing useful"}), "Could not recognize any allocation")
}

func TestParseMechanismsTool_Handle(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	env.loadThroughAllocation(t, id)
	tool := NewParseMechanismsTool(env.store, nil)

	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "text": mechanismText})
	assert.Contains(t, text, "Successfully identified 1 safety mechanisms")
	assert.Contains(t, text, "- FSRs covered by a mechanism: 3/3")

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "text": "none"}), "Could not parse any safety mechanisms")
}

func TestParseReviewTool_Handle(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	tool := NewParseReviewTool(env.store, nil)

	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "kind": "hara", "text": reviewText})
	assert.Contains(t, text, "Successfully parsed 2 review items")
	assert.Contains(t, text, "- Compliance: 50.0% (Fair)")
	assert.Contains(t, text, "Describe the braking modes.")

	ds, err := env.store.Dataset(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, ds.Reviews[safety.ReviewHARA], 2)

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "kind": "fsc", "text": reviewText}), "invalid review kind")
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "kind": "hara", "text": "nothing"}), "Could not parse any review items")
}

// --- verification and export ---

func TestValidateTool_Handle_Blocked(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	text := mustFail(t, NewValidateTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "insufficient data")
}

func TestValidateTool_Handle_Success(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	env.loadThroughAllocation(t, id)
	mustSucceed(t, NewParseMechanismsTool(env.store, nil), map[string]interface{}{"session_id": id, "text": mechanismText})

	text := mustSucceed(t, NewValidateTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id})

	assert.Contains(t, text, "FSC Verification: Brake System")
	assert.Contains(t, text, "| Safety goals covered by FSRs | 2/2 | ✅ PASS |")
	assert.Contains(t, text, "| FSRs with verification criteria | 1/3 | ❌ FAIL |")
	assert.Contains(t, text, "FSC workbook with traceability and statistics")

	st, err := env.store.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageFSCVerified, st.Stage)
	assert.True(t, st.IsComplete(workflow.StageValidationCriteriaSpecified))
}

func TestExportTool_Handle_XLSX(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	env.loadThroughAllocation(t, id)
	mustSucceed(t, NewParseMechanismsTool(env.store, nil), map[string]interface{}{"session_id": id, "text": mechanismText})
	tool := NewExportTool(env.store, env.settings, NewHistoryBridge(env.store, nil), nil)

	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "kind": "fsc"})

	path := filepath.Join(env.settings.OutputDir, "FSC_Brake_System_20260223_120000.xlsx")
	assert.Contains(t, text, "Successfully generated Functional Safety Concept")
	assert.Contains(t, text, path)
	assert.Contains(t, text, "Traceability")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Mechanism Coverage")

	docs, err := env.store.Documents(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fsc", docs[0].Kind)
	assert.Equal(t, path, docs[0].Path)
	assert.Positive(t, docs[0].Size)

	st, err := env.store.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageFSCGenerated, st.Stage)
}

func TestExportTool_Handle_Markdown(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	env.loadThroughAllocation(t, id)
	outDir := t.TempDir()

	text := mustSucceed(t, NewExportTool(env.store, env.settings, nil, nil), map[string]interface{}{
		"session_id": id, "kind": "allocation", "format": "md", "output_dir": outDir,
	})

	path := filepath.Join(outDir, "Allocation_Brake_System_20260223_120000.md")
	assert.Contains(t, text, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# FSR Allocation: Brake System"))
}

func TestExportTool_Handle_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	tool := NewExportTool(env.store, env.settings, nil, nil)

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "kind": "sotif"}), "unknown document kind")
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "kind": "fsr", "format": "docx"}), "docx")

	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	text := mustFail(t, tool, map[string]interface{}{"session_id": id, "kind": "fsr"})
	assert.Contains(t, text, "Cannot generate Functional Safety Requirements: insufficient data")
	assert.Contains(t, text, "### ❌ Errors")

	entries, err := os.ReadDir(env.settings.OutputDir)
	if err == nil {
		assert.Empty(t, entries, "blocked export must not write files")
	}
}

func TestAllocationReportTool_Handle(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	tool := NewAllocationReportTool(env.store, env.settings, NewHistoryBridge(env.store, nil), nil)

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id}), "No FSRs")

	env.loadThroughAllocation(t, id)
	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "save": true})
	assert.Contains(t, text, "FSR ALLOCATION ANALYSIS REPORT")
	assert.Contains(t, text, "No high-risk ASIL mixing detected")

	path := filepath.Join(env.settings.OutputDir, "Allocation_Report_Brake_System_20260223_120000.txt")
	assert.Contains(t, text, path)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	docs, err := env.store.Documents(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "allocation_report", docs[0].Kind)
}

// --- formatting ---

func TestFormatResponseTool_Handle_OfferShownOnce(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	mustSucceed(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})
	tool := NewFormatResponseTool(env.store, nil)
	content := "Here are the requirements derived for both safety goals."

	first := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "content": content})
	assert.True(t, strings.HasPrefix(first, content))
	assert.Contains(t, first, "Excel spreadsheet with FSR table")
	assert.Contains(t, first, "### 🚀 Next Steps")

	second := mustSucceed(t, tool, map[string]interface{}{"session_id": id, "content": content})
	assert.NotContains(t, second, "Generate Documents")
	assert.Contains(t, second, "### 🚀 Next Steps")
}

func TestFormatResponseTool_Handle_ToolReplyUnchanged(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewParseHARATool(env.store, nil), map[string]interface{}{"session_id": id, "text": haraText})
	reply := mustSucceed(t, NewParseFSRsTool(env.store, env.settings, nil), map[string]interface{}{"session_id": id, "text": fsrText})
	require.Equal(t, 1, strings.Count(reply, "Generate Documents"))

	out := mustSucceed(t, NewFormatResponseTool(env.store, nil), map[string]interface{}{"session_id": id, "content": reply})
	assert.Equal(t, reply, out)

	sess, err := env.store.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, sess.LastOperation)
}

func TestFormatResponseTool_Handle_Minimal(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	mustSucceed(t, NewSetOutputFormatTool(env.store), map[string]interface{}{"session_id": id, "format": "minimal"})

	text := mustSucceed(t, NewFormatResponseTool(env.store, nil), map[string]interface{}{
		"session_id": id,
		"content":    "## Summary\n\n**Bold** statement that is long enough",
	})
	assert.Equal(t, "Summary\n\nBold statement that is long enough", text)
}

func TestSetOutputFormatTool_Handle_Invalid(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	text := mustFail(t, NewSetOutputFormatTool(env.store), map[string]interface{}{"session_id": id, "format": "fancy"})
	assert.Contains(t, text, "Invalid format")
}

// --- workflow ---

func TestAdvanceTool_Handle(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)
	tool := NewAdvanceTool(env.store, nil)

	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "advanced** to **hara_loaded**")

	text = mustSucceed(t, tool, map[string]interface{}{"session_id": id, "stage": "fsrs_derived"})
	assert.Contains(t, text, "Progress: 3/8 stages")

	text = mustSucceed(t, tool, map[string]interface{}{"session_id": id, "stage": "hara_loaded"})
	assert.Contains(t, text, "Workflow already at **fsrs_derived**")

	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id, "stage": "done"}), "unknown workflow stage")

	mustSucceed(t, tool, map[string]interface{}{"session_id": id, "stage": "fsc_generated"})
	assert.Contains(t, mustFail(t, tool, map[string]interface{}{"session_id": id}), "workflow is complete")
}

func TestStatusTool_Handle(t *testing.T) {
	env := newTestEnv(t)
	tool := NewStatusTool(env.store)

	assert.Contains(t, mustSucceed(t, tool, map[string]interface{}{}), "No sessions yet")

	id := env.startSession(t)
	env.loadThroughAllocation(t, id)
	mustSucceed(t, NewExportTool(env.store, env.settings, NewHistoryBridge(env.store, nil), nil),
		map[string]interface{}{"session_id": id, "kind": "fsr"})

	list := mustSucceed(t, tool, map[string]interface{}{})
	assert.Contains(t, list, id)
	assert.Contains(t, list, "fsrs_allocated")

	text := mustSucceed(t, tool, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "# FSC Status: Brake System")
	assert.Contains(t, text, "**Progress:** 4/8 stages")
	assert.Contains(t, text, "| 📍 fsrs_allocated | current |")
	assert.Contains(t, text, "| ⬜ fsc_verified | pending | - |")
	assert.Contains(t, text, "- Allocated: 3/3 (100.0%)")
	assert.Contains(t, text, "FSR_Brake_System_20260223_120000.xlsx")
	assert.Contains(t, text, "**Next:** `identify safety mechanisms, then fusa_parse_mechanisms`")
}

// --- bridge ---

func TestHistoryBridge_NilSafe(t *testing.T) {
	assert.Nil(t, NewHistoryBridge(nil, nil))

	var b *HistoryBridge
	assert.NotPanics(t, func() { b.OnDocumentExported(context.Background(), "s", "fsr", "/tmp/x", 1) })
	assert.NotPanics(t, func() { notifyExport(context.Background(), nil, "s", "fsr", "/tmp/x", 1) })
}

func TestHistoryBridge_UnknownSessionIsLoggedOnly(t *testing.T) {
	env := newTestEnv(t)
	b := NewHistoryBridge(env.store, nil)
	assert.NotPanics(t, func() { b.OnDocumentExported(context.Background(), "missing", "fsr", "/tmp/x", 1) })
}
