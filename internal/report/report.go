// Package report assembles documents from a dataset.
//
// A Document is an ordered list of Sections: a title, header row, typed body
// rows and a presentation tag per cell. The package knows nothing about file
// formats; internal/render turns Documents into files.
//
// Every document kind is described by declarative column tables, so adding a
// column means adding one entry, not another generator.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HendryAvila/fusadocs/internal/aggregate"
	"github.com/HendryAvila/fusadocs/internal/format"
	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/validate"
)

// ErrUnknownKind is returned for an unrecognized document kind.
var ErrUnknownKind = errors.New("unknown document kind")

// Kind identifies a document type.
type Kind string

const (
	KindHARA                 Kind = "hara"
	KindHARAReview           Kind = "hara_review"
	KindItemDefinitionReview Kind = "item_definition_review"
	KindFSR                  Kind = "fsr"
	KindAllocation           Kind = "allocation"
	KindFSC                  Kind = "fsc"
)

// Kinds lists every document kind in workflow order.
var Kinds = []Kind{KindHARA, KindHARAReview, KindItemDefinitionReview, KindFSR, KindAllocation, KindFSC}

type kindInfo struct {
	title  string
	prefix string
	build  func(safety.Dataset, Options) []Section
	check  func(safety.Dataset, Options) validate.Result
}

var kinds = map[Kind]kindInfo{
	KindHARA: {
		title: "Hazard Analysis and Risk Assessment", prefix: "HARA",
		build: buildHARA,
		check: func(ds safety.Dataset, _ Options) validate.Result { return validate.Hazards(ds.Hazards) },
	},
	KindHARAReview: {
		title: "HARA Review", prefix: "HARA_Review",
		build: func(ds safety.Dataset, o Options) []Section { return buildReview(safety.ReviewHARA, ds, o) },
		check: func(ds safety.Dataset, _ Options) validate.Result {
			return validate.Reviews(ds.Reviews[safety.ReviewHARA])
		},
	},
	KindItemDefinitionReview: {
		title: "Item Definition Review", prefix: "Item_Definition_Review",
		build: func(ds safety.Dataset, o Options) []Section {
			return buildReview(safety.ReviewItemDefinition, ds, o)
		},
		check: func(ds safety.Dataset, _ Options) validate.Result {
			return validate.Reviews(ds.Reviews[safety.ReviewItemDefinition])
		},
	},
	KindFSR: {
		title: "Functional Safety Requirements", prefix: "FSR",
		build: buildFSR,
		check: checkFSRs,
	},
	KindAllocation: {
		title: "FSR Allocation", prefix: "Allocation",
		build: buildAllocation,
		check: checkFSRs,
	},
	KindFSC: {
		title: "Functional Safety Concept", prefix: "FSC",
		build: buildFSC,
		check: func(ds safety.Dataset, o Options) validate.Result {
			return validate.Merge(checkFSRs(ds, o), validate.Mechanisms(ds.Mechanisms, ds.FSRs))
		},
	},
}

func checkFSRs(ds safety.Dataset, o Options) validate.Result {
	return validate.FSRs(ds.Goals, ds.FSRs, validate.Options{SoftThreshold: o.SoftThreshold})
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		names := make([]string, len(Kinds))
		for i, k := range Kinds {
			names[i] = string(k)
		}
		return "", fmt.Errorf("%w %q: must be one of: %s", ErrUnknownKind, s, strings.Join(names, ", "))
	}
	return k, nil
}

// Title is the human name of the kind.
func (k Kind) Title() string { return kinds[k].title }

// FilePrefix is the leading part of the kind's output file name.
func (k Kind) FilePrefix() string { return kinds[k].prefix }

// ─── Document model ─────────────────────────────────────────────────────────

// Cell is one typed value with its presentation tag. Value is a string, int
// or float64.
type Cell struct {
	Value any
	Tag   format.Tag
}

// String renders the value as text.
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprint(v)
	}
}

func text(s string) Cell { return Cell{Value: s} }

func tagged(s string, t format.Tag) Cell { return Cell{Value: s, Tag: t} }

func num(n int) Cell { return Cell{Value: n} }

func asilCell(a safety.ASIL) Cell { return tagged(a.Label(), format.ASIL(a)) }

// Section is one sheet-equivalent of a document.
type Section struct {
	// Name is the sheet name (at most 31 characters).
	Name     string
	Title    string
	Subtitle string
	Headers  []string
	// Widths are column width hints in characters; zero means default.
	Widths []float64
	Rows   [][]Cell
	// Freeze keeps the header row visible while scrolling.
	Freeze bool
}

// Document is an assembled report.
type Document struct {
	Kind      Kind
	System    string
	Title     string
	Generated time.Time
	Sections  []Section
}

// Empty reports whether the document has no sections.
func (d Document) Empty() bool { return len(d.Sections) == 0 }

// Section returns the section with the given name.
func (d Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Options tunes assembly.
type Options struct {
	IDLimit            int
	UnallocatedIDLimit int
	SoftThreshold      float64
	// Generated stamps the document. Zero leaves it unset.
	Generated time.Time
}

// DefaultOptions returns the standard truncation limits and threshold.
func DefaultOptions() Options {
	return Options{
		IDLimit:            aggregate.IDLimit,
		UnallocatedIDLimit: aggregate.UnallocatedIDLimit,
		SoftThreshold:      validate.DefaultSoftThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IDLimit <= 0 {
		o.IDLimit = d.IDLimit
	}
	if o.UnallocatedIDLimit <= 0 {
		o.UnallocatedIDLimit = d.UnallocatedIDLimit
	}
	if o.SoftThreshold <= 0 {
		o.SoftThreshold = d.SoftThreshold
	}
	return o
}

// Build validates ds for kind and assembles the document. When the
// validation result is invalid the returned document is empty and must not
// be rendered.
func Build(kind Kind, ds safety.Dataset, opts Options) (Document, validate.Result, error) {
	info, ok := kinds[kind]
	if !ok {
		_, err := ParseKind(string(kind))
		return Document{}, validate.Result{}, err
	}
	opts = opts.withDefaults()
	res := info.check(ds, opts)
	if !res.Valid {
		return Document{}, res, nil
	}
	return Document{
		Kind:      kind,
		System:    systemName(ds),
		Title:     info.title,
		Generated: opts.Generated,
		Sections:  info.build(ds, opts),
	}, res, nil
}

func systemName(ds safety.Dataset) string {
	if s := strings.TrimSpace(ds.System); s != "" {
		return s
	}
	return "Unnamed System"
}

// ─── Declarative columns ────────────────────────────────────────────────────

// column describes one table column over records of type T.
type column[T any] struct {
	header string
	width  float64
	cell   func(T) Cell
}

// table builds a frozen-header section from records and a column table.
func table[T any](name, title, subtitle string, cols []column[T], records []T) Section {
	s := Section{Name: name, Title: title, Subtitle: subtitle, Freeze: true}
	for _, c := range cols {
		s.Headers = append(s.Headers, c.header)
		s.Widths = append(s.Widths, c.width)
	}
	for _, r := range records {
		row := make([]Cell, len(cols))
		for i, c := range cols {
			row[i] = c.cell(r)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// metric is one row of a two- or three-column summary table.
type metric struct {
	label string
	value Cell
	share string
}

func metricsSection(name, title, subtitle string, rows []metric) Section {
	s := Section{
		Name: name, Title: title, Subtitle: subtitle,
		Headers: []string{"Metric", "Value", "Share"},
		Widths:  []float64{40, 18, 12},
	}
	for _, m := range rows {
		s.Rows = append(s.Rows, []Cell{text(m.label), m.value, text(m.share)})
	}
	return s
}

// heading is a metric row that introduces a group of metrics.
func heading(label string) metric {
	return metric{label: label, value: tagged("", format.TagEmphasis)}
}

var titler = cases.Title(language.English)

// titleCase renders lower-case enum values such as "detection" for display.
func titleCase(s string) string { return titler.String(s) }

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func asilLevels(levels []safety.ASIL) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}
