package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/HendryAvila/fusadocs/internal/report"
)

// Markdown writes each section as a heading followed by a pipe table. It is
// the word-processor output for narrative documents.
type Markdown struct{}

// Ext implements Sink.
func (Markdown) Ext() string { return "md" }

// Write implements Sink.
func (Markdown) Write(w io.Writer, d report.Document) error {
	if d.Empty() {
		return ErrEmptyDocument
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n", d.Title, d.System)
	if !d.Generated.IsZero() {
		fmt.Fprintf(&b, "\nGenerated: %s\n", d.Generated.Format(time.DateTime))
	}

	for _, s := range d.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Title)
		if s.Subtitle != "" {
			fmt.Fprintf(&b, "_%s_\n\n", s.Subtitle)
		}
		if len(s.Headers) == 0 {
			continue
		}
		writeRow(&b, s.Headers)
		sep := make([]string, len(s.Headers))
		for i := range sep {
			sep[i] = "---"
		}
		writeRow(&b, sep)
		for _, r := range s.Rows {
			cells := make([]string, len(s.Headers))
			heading := emphasized(r)
			for i := range cells {
				if i >= len(r) {
					continue
				}
				v := mdEscape(r[i].String())
				if heading && v != "" {
					v = "**" + v + "**"
				}
				cells[i] = v
			}
			writeRow(&b, cells)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func mdEscape(s string) string { return mdReplacer.Replace(s) }
