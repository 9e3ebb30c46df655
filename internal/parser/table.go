package parser

import (
	"strings"
)

// tableSpec describes one pipe-table schema.
type tableSpec struct {
	fields fieldTable
	// isRow reports whether a first cell holds a record identifier.
	isRow func(first string) bool
	// minCells rejects shorter data rows.
	minCells int
	// positional is the legacy column order used for header cells that map to
	// no field.
	positional []string
}

// splitRow splits "| a | b |" into trimmed cells. ok is false for lines that
// are not table rows.
func splitRow(line string) ([]string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "|") {
		return nil, false
	}
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells, true
}

// isSeparator reports whether every cell consists only of '-' and ':'.
func isSeparator(cells []string) bool {
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, "-: ") != "" {
			return false
		}
		seen = true
	}
	return seen
}

// isHeader reports whether cells look like a header row: the first cell
// names an identifier column.
func isHeader(cells []string) bool {
	return len(cells) > 0 && strings.Contains(cells[0], "ID")
}

// hasTable reports whether text contains a table header row.
func hasTable(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if cells, ok := splitRow(line); ok && isHeader(cells) {
			return true
		}
	}
	return false
}

// columnMap maps header positions to canonical field names. The first
// column is always the identifier; the rest are matched by keyword.
func (ts tableSpec) columnMap(header []string) map[int]string {
	cols := map[int]string{0: fID}
	used := map[string]bool{fID: true}
	for i, h := range header {
		if i == 0 {
			continue
		}
		if name := ts.fields.match(cleanCell(h)); name != "" && !used[name] {
			cols[i] = name
			used[name] = true
		}
	}
	for i := range header {
		if _, ok := cols[i]; ok || i >= len(ts.positional) {
			continue
		}
		if name := ts.positional[i]; !used[name] {
			cols[i] = name
			used[name] = true
		}
	}
	return cols
}

// scanTable reads every data row of every table in text into rawRecords.
// Rows seen before any header are skipped.
func scanTable(text string, ts tableSpec, diags *diagSink) []rawRecord {
	var (
		records []rawRecord
		cols    map[int]string
	)
	for n, line := range strings.Split(text, "\n") {
		cells, ok := splitRow(line)
		if !ok || len(cells) == 0 || isSeparator(cells) {
			continue
		}
		first := cleanCell(cells[0])
		if !ts.isRow(first) && isHeader(cells) {
			cols = ts.columnMap(cells)
			continue
		}
		if cols == nil || !ts.isRow(first) {
			continue
		}
		if len(cells) < ts.minCells {
			diags.add(n+1, DiagShortRow, "row %q has %d cells, need at least %d", first, len(cells), ts.minCells)
			continue
		}
		rec := rawRecord{line: n + 1, fields: make(map[string]string)}
		for i, c := range cells {
			if name, ok := cols[i]; ok {
				rec.fields[name] = cleanCell(c)
			}
		}
		rec.id = rec.fields[fID]
		records = append(records, rec)
	}
	return records
}
