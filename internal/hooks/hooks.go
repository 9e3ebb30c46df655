// Package hooks post-processes assistant responses before they reach the
// user: minimal-mode markdown stripping, document export offers and the
// workflow next-steps footer.
package hooks

import (
	"regexp"
	"strings"

	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// MinContentLength is the trimmed length below which content passes through.
const MinContentLength = 20

// Last operations that trigger an export offer.
const (
	OpFSRDerivation   = "fsr_derivation"
	OpFSRAllocation   = "fsr_allocation"
	OpFSCVerification = "fsc_verification"
)

// Context is everything Process needs to know about the session.
type Context struct {
	OutputFormat  string
	LastOperation string
	HasFSRs       bool
	Stage         workflow.Stage
}

// Process applies the output policy to content.
func Process(content string, c Context) string {
	if len([]rune(strings.TrimSpace(content))) < MinContentLength {
		return content
	}
	if c.OutputFormat == "minimal" {
		content = StripMarkdown(content)
	}
	content = appendOffer(content, c)
	return workflow.AppendGuidance(content, c.Stage)
}

// ProcessReply is Process for text that may already be structured. Content
// that IsAlreadyFormatted only gets the next-steps footer, so a tool reply
// passed back through keeps its single export offer.
func ProcessReply(content string, c Context) string {
	if len([]rune(strings.TrimSpace(content))) < MinContentLength {
		return content
	}
	if IsAlreadyFormatted(content) {
		return workflow.AppendGuidance(content, c.Stage)
	}
	return Process(content, c)
}

// HasOffer reports whether content carries an export offer.
func HasOffer(content string) bool {
	return strings.Contains(content, offerHeading)
}

// ─── Export offers ───────────────────────────────────────────────────────────

func offerItems(c Context) []string {
	switch c.LastOperation {
	case OpFSRDerivation:
		if c.HasFSRs {
			return []string{"Excel spreadsheet with FSR table"}
		}
	case OpFSRAllocation:
		if c.HasFSRs {
			return []string{"Excel allocation matrix", "Allocation analysis report"}
		}
	case OpFSCVerification:
		return []string{"FSC document (Markdown)", "FSC workbook with traceability and statistics"}
	}
	return nil
}

const offerHeading = "💾 **Generate Documents:**"

func appendOffer(content string, c Context) string {
	items := offerItems(c)
	if len(items) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n---\n\n" + offerHeading + "\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("\n**Commands:**")
	b.WriteString("\n- `fusa_export kind=fsr` - FSR listing")
	b.WriteString("\n- `fusa_export kind=allocation` - Allocation matrix")
	b.WriteString("\n- `fusa_allocation_report` - Allocation analysis report")
	b.WriteString("\n- `fusa_export kind=fsc format=md` - Full FSC report")
	return b.String()
}

// ─── Minimal mode ────────────────────────────────────────────────────────────

var (
	tablePattern  = regexp.MustCompile(`(?m)^\|[^\n]+\|\n\|[-:| \t]+\|(?:\n\|[^\n]+\|)+`)
	headerPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	rulePattern   = regexp.MustCompile(`(?m)^---+$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown turns markdown into plain text: tables become bullet lists
// of their body rows, and headers, bold markers and rules are removed.
func StripMarkdown(content string) string {
	content = tablePattern.ReplaceAllStringFunc(content, tableToList)
	content = headerPattern.ReplaceAllString(content, "")
	content = boldPattern.ReplaceAllString(content, "$1")
	content = rulePattern.ReplaceAllString(content, "")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func tableToList(table string) string {
	lines := strings.Split(table, "\n")
	var items []string
	for i, line := range lines {
		if i == 0 || isSeparator(line) {
			continue
		}
		var cells []string
		for _, c := range strings.Split(line, "|") {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			items = append(items, "- "+strings.Join(cells, " "))
		}
	}
	return strings.Join(items, "\n")
}

func isSeparator(line string) bool {
	return strings.Trim(line, "|-: \t") == "" && strings.Contains(line, "-")
}

// ─── Detection ───────────────────────────────────────────────────────────────

var formattedIndicators = []string{
	offerHeading,
	"### 🚀 Next Steps",
	"|---|",
	"## 📋",
	"### 📊",
	"*ISO 26262",
	"✅ **Successfully",
	"FSR-ID | Type | ASIL",
}

// IsAlreadyFormatted reports whether content already carries structured
// output such as a markdown table, a report heading, an export offer or the
// next-steps footer.
func IsAlreadyFormatted(content string) bool {
	for _, ind := range formattedIndicators {
		if strings.Contains(content, ind) {
			return true
		}
	}
	return false
}
