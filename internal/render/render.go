// Package render writes assembled report documents to files.
//
// A Sink turns a report.Document into bytes; Save names the file with the
// output-path convention and writes it under a directory.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/report"
)

var (
	// ErrUnknownFormat is returned by ForFormat for an unsupported name.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrEmptyDocument is returned when a document without sections is written.
	ErrEmptyDocument = errors.New("document has no sections")
)

// Sink renders a document into a file format.
type Sink interface {
	// Ext is the file extension without the dot.
	Ext() string
	Write(w io.Writer, d report.Document) error
}

// ForFormat returns the sink for "xlsx" or "md".
func ForFormat(name string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xlsx", "excel", "":
		return XLSX{}, nil
	case "md", "markdown":
		return Markdown{}, nil
	default:
		return nil, fmt.Errorf("%w %q: must be xlsx or md", ErrUnknownFormat, name)
	}
}

// stampLayout is the timestamp part of output file names.
const stampLayout = "20060102_150405"

// Filename returns <prefix>_<system>_<YYYYMMDD_HHMMSS>.<ext> for kind.
func Filename(kind report.Kind, system string, t time.Time, ext string) string {
	return PrefixedFilename(kind.FilePrefix(), system, t, ext)
}

// PrefixedFilename is Filename with an explicit prefix.
func PrefixedFilename(prefix, system string, t time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, SanitizeName(system), t.Format(stampLayout), ext)
}

// SanitizeName keeps letters, digits, '.', '_', '-' and replaces everything
// else with '_'. Spaces become '_' as well.
func SanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Save writes d with sink s into dir and returns the written path.
func Save(s Sink, dir string, d report.Document, t time.Time) (string, error) {
	if d.Empty() {
		return "", ErrEmptyDocument
	}
	path := filepath.Join(dir, Filename(d.Kind, d.System, t, s.Ext()))
	return path, writeFile(path, func(w io.Writer) error { return s.Write(w, d) })
}

// SaveText writes a plain-text report named with prefix into dir.
func SaveText(dir, prefix, system string, t time.Time, content string) (string, error) {
	path := filepath.Join(dir, PrefixedFilename(prefix, system, t, "txt"))
	return path, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// emphasized reports whether a row is a group heading.
func emphasized(row []report.Cell) bool {
	for _, c := range row {
		if c.Tag == format.TagEmphasis {
			return true
		}
	}
	return false
}

// subtitle joins the section subtitle with the document stamp.
func subtitle(s report.Section, d report.Document) string {
	parts := make([]string, 0, 2)
	if s.Subtitle != "" {
		parts = append(parts, s.Subtitle)
	}
	if !d.Generated.IsZero() {
		parts = append(parts, "Generated: "+d.Generated.Format(time.DateTime))
	}
	return strings.Join(parts, " | ")
}
