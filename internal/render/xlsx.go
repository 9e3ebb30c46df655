package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/report"
)

// XLSX writes one worksheet per section.
type XLSX struct{}

// Ext implements Sink.
func (XLSX) Ext() string { return "xlsx" }

const maxSheetName = 31

// Write implements Sink.
func (XLSX) Write(w io.Writer, d report.Document) error {
	if d.Empty() {
		return ErrEmptyDocument
	}
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyleSet(f)
	if err != nil {
		return err
	}

	used := make(map[string]bool)
	for i, s := range d.Sections {
		name := sheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("adding sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s, subtitle(s, d), styles); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return nil
}

// ─── Styles ─────────────────────────────────────────────────────────────────

type styleSet struct {
	body     int
	subtitle int
	byTag    map[format.Tag]int
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "BFBFBF", Style: 1},
	{Type: "right", Color: "BFBFBF", Style: 1},
	{Type: "top", Color: "BFBFBF", Style: 1},
	{Type: "bottom", Color: "BFBFBF", Style: 1},
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	set := styleSet{byTag: make(map[format.Tag]int)}
	var err error

	set.body, err = f.NewStyle(&excelize.Style{
		Border:    thinBorder,
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return set, fmt.Errorf("body style: %w", err)
	}
	set.subtitle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Color: "595959"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return set, fmt.Errorf("subtitle style: %w", err)
	}

	for _, tag := range format.Tags() {
		p, _ := format.PaletteFor(tag)
		st := &excelize.Style{
			Border:    thinBorder,
			Font:      &excelize.Font{Bold: p.Bold, Color: p.Font},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		}
		if p.Fill != "" {
			st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{p.Fill}}
		}
		switch tag {
		case format.TagTitle:
			st.Font.Size = 14
			st.Border = nil
			st.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center"}
		case format.TagHeader:
			st.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
		}
		id, err := f.NewStyle(st)
		if err != nil {
			return set, fmt.Errorf("style %q: %w", tag, err)
		}
		set.byTag[tag] = id
	}
	return set, nil
}

func (s styleSet) forTag(t format.Tag) int {
	if id, ok := s.byTag[t]; ok {
		return id
	}
	return s.body
}

// ─── Sheets ─────────────────────────────────────────────────────────────────

func writeSheet(f *excelize.File, sheet string, s report.Section, sub string, styles styleSet) error {
	cols := len(s.Headers)
	if cols == 0 {
		cols = 1
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	row := 1
	banner := func(value string, style int) error {
		first := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(sheet, first, value); err != nil {
			return err
		}
		end := fmt.Sprintf("%s%d", last, row)
		if cols > 1 {
			if err := f.MergeCell(sheet, first, end); err != nil {
				return err
			}
		}
		row++
		return f.SetCellStyle(sheet, first, end, style)
	}

	if err := banner(s.Title, styles.forTag(format.TagTitle)); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if sub != "" {
		if err := banner(sub, styles.subtitle); err != nil {
			return fmt.Errorf("subtitle: %w", err)
		}
	}

	headerRow := row
	for i, h := range s.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if len(s.Headers) > 0 {
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", last, row),
			styles.forTag(format.TagHeader)); err != nil {
			return fmt.Errorf("header style: %w", err)
		}
	}
	row++

	for _, r := range s.Rows {
		heading := emphasized(r)
		for i, c := range r {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if c.Value != nil {
				if err := f.SetCellValue(sheet, cell, c.Value); err != nil {
					return err
				}
			}
			tag := c.Tag
			if heading {
				tag = format.TagEmphasis
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.forTag(tag)); err != nil {
				return err
			}
		}
		row++
	}

	for i, w := range s.Widths {
		if w <= 0 {
			continue
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if s.Freeze {
		top, _ := excelize.CoordinatesToCellName(1, headerRow+1)
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: top,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freezing header: %w", err)
		}
	}
	return nil
}

// sheetName makes name legal and unique within a workbook.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Sheet"
	}
	clean = truncateRunes(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
