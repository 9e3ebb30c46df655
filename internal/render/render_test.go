package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/report"
	"github.com/HendryAvila/fusadocs/internal/safety"
)

var stamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleDocument() report.Document {
	return report.Document{
		Kind:      report.KindFSR,
		System:    "Brake System",
		Title:     "Functional Safety Requirements",
		Generated: stamp,
		Sections: []report.Section{
			{
				Name:     "FSR Details",
				Title:    "Functional Safety Requirements: Brake System",
				Subtitle: "ISO 26262-3:2018 - Clause 7",
				Headers:  []string{"FSR ID", "ASIL", "Count"},
				Widths:   []float64{40, 10, 0},
				Freeze:   true,
				Rows: [][]report.Cell{
					{{Value: "FSR-SG-001-DET-1"}, {Value: "ASIL D", Tag: format.TagCritical}, {Value: 3}},
					{{Value: "a|b"}, {Value: "QM", Tag: format.TagNone}, {Value: 1.5}},
				},
			},
			{
				Name:    "Summary",
				Title:   "FSR Summary: Brake System",
				Headers: []string{"Metric", "Value"},
				Rows: [][]report.Cell{
					{{Value: "ASIL Distribution"}, {Value: "", Tag: format.TagEmphasis}},
					{{Value: "ASIL D"}, {Value: 1, Tag: format.TagCritical}},
				},
			},
		},
	}
}

func openWorkbook(t *testing.T, d report.Document) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, XLSX{}.Write(&buf, d))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "FSR_Brake_System_ECU_v2.1_20260102_030405.xlsx",
		Filename(report.KindFSR, "Brake System/ECU v2.1", stamp, "xlsx"))
	assert.Equal(t, "HARA_Review_Système-A_20260102_030405.md",
		Filename(report.KindHARAReview, "Système-A", stamp, "md"))
	assert.Equal(t, "Allocation_Report_a_b_20260102_030405.txt",
		PrefixedFilename("Allocation_Report", "a:b", stamp, "txt"))
}

func TestForFormat(t *testing.T) {
	s, err := ForFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", s.Ext())

	s, err = ForFormat("markdown")
	require.NoError(t, err)
	assert.Equal(t, "md", s.Ext())

	_, err = ForFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestXLSX_Layout(t *testing.T) {
	f := openWorkbook(t, sampleDocument())

	assert.Equal(t, []string{"FSR Details", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("FSR Details")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Functional Safety Requirements: Brake System", rows[0][0])
	assert.Equal(t, "ISO 26262-3:2018 - Clause 7 | Generated: 2026-01-02 03:04:05", rows[1][0])
	assert.Equal(t, []string{"FSR ID", "ASIL", "Count"}, rows[2])
	assert.Equal(t, []string{"FSR-SG-001-DET-1", "ASIL D", "3"}, rows[3])

	merged, err := f.GetMergeCells("FSR Details")
	require.NoError(t, err)
	var spans []string
	for _, m := range merged {
		spans = append(spans, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A1:C1", "A2:C2"}, spans)

	panes, err := f.GetPanes("FSR Details")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 3, panes.YSplit)
	assert.Equal(t, "A4", panes.TopLeftCell)

	width, err := f.GetColWidth("FSR Details", "A")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

func TestXLSX_TagStyles(t *testing.T) {
	f := openWorkbook(t, sampleDocument())

	critical, err := f.GetCellStyle("FSR Details", "B4")
	require.NoError(t, err)
	plain, err := f.GetCellStyle("FSR Details", "A4")
	require.NoError(t, err)
	assert.NotEqual(t, critical, plain)

	style, err := f.GetStyle(critical)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(strings.Join(style.Fill.Color, "")), "FFC7CE")
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	header, err := f.GetCellStyle("FSR Details", "A3")
	require.NoError(t, err)
	hs, err := f.GetStyle(header)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(strings.Join(hs.Fill.Color, "")), "00467F")
}

func TestXLSX_HeadingRowIsBold(t *testing.T) {
	f := openWorkbook(t, sampleDocument())

	// The document stamp fills the subtitle row even without a section subtitle.
	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Generated: 2026-01-02 03:04:05", rows[1][0])
	assert.Equal(t, []string{"Metric", "Value"}, rows[2])

	id, err := f.GetCellStyle("Summary", "A4")
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	panes, err := f.GetPanes("Summary")
	require.NoError(t, err)
	assert.False(t, panes.Freeze)
}

func TestXLSX_EmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	err := XLSX{}.Write(&buf, report.Document{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "A_B", sheetName("A/B", used))
	assert.Equal(t, "a_b (2)", sheetName("a/b", used))

	long := strings.Repeat("x", 40)
	name := sheetName(long, used)
	assert.Len(t, name, maxSheetName)
	again := sheetName(long, used)
	assert.Len(t, again, maxSheetName)
	assert.True(t, strings.HasSuffix(again, " (2)"))
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown{}.Write(&buf, sampleDocument()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Functional Safety Requirements: Brake System\n"))
	assert.Contains(t, out, "Generated: 2026-01-02 03:04:05")
	assert.Contains(t, out, "## Functional Safety Requirements: Brake System\n\n_ISO 26262-3:2018 - Clause 7_")
	assert.Contains(t, out, "| FSR ID | ASIL | Count |\n| --- | --- | --- |\n")
	assert.Contains(t, out, "| FSR-SG-001-DET-1 | ASIL D | 3 |")
	assert.Contains(t, out, `| a\|b | QM | 1.5 |`)
	assert.Contains(t, out, "| **ASIL Distribution** |  |")
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "documents")

	path, err := Save(XLSX{}, dir, sampleDocument(), stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "FSR_Brake_System_20260102_030405.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 2)

	_, err = Save(Markdown{}, dir, report.Document{}, stamp)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestSaveText(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveText(dir, "Allocation_Report", "Brake System", stamp, "hello\n")
	require.NoError(t, err)
	assert.Equal(t, "Allocation_Report_Brake_System_20260102_030405.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestSave_BuiltDocument(t *testing.T) {
	ds := safety.Dataset{
		System: "Lane Keeping",
		Goals:  []safety.SafetyGoal{{ID: "SG-001", Statement: "Avoid unintended steering", ASIL: safety.ASILC}},
		FSRs: []safety.FSR{
			{ID: "FSR-SG-001-DET-1", Type: safety.TypeDetection, ASIL: safety.ASILC, SafetyGoalIDs: []string{"SG-001"}, AllocatedTo: "EPS ECU"},
		},
		Mechanisms: []safety.SafetyMechanism{
			{ID: "SM-001", Name: "Torque monitor", Category: safety.MechanismDetection, CoveredFSRs: []string{"FSR-SG-001-DET-1"}},
		},
	}
	doc, res, err := report.Build(report.KindFSC, ds, report.Options{Generated: stamp})
	require.NoError(t, err)
	require.True(t, res.Valid)

	path, err := Save(XLSX{}, t.TempDir(), doc, stamp)
	require.NoError(t, err)
	assert.Equal(t, "FSC_Lane_Keeping_20260102_030405.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{
		"Safety Goals", "Functional Safety Requirements", "Safety Mechanisms",
		"Traceability", "Mechanism Coverage", "Allocation Matrix", "Statistics",
	}, f.GetSheetList())

	rows, err := f.GetRows("Mechanism Coverage")
	require.NoError(t, err)
	assert.Equal(t, []string{"FSR-SG-001-DET-1", "✓", "Yes"}, rows[3])
}
