package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/render"
	"github.com/HendryAvila/fusadocs/internal/report"
	"github.com/HendryAvila/fusadocs/internal/session"
	"github.com/HendryAvila/fusadocs/internal/tools"
)

type exportOptions struct {
	kind   string
	input  string
	system string
	out    string
	format string
}

func newExportCmd(a *app) *cobra.Command {
	var o exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build a document from a snapshot file without a server",
		Long: `Build a document offline from a YAML or JSON snapshot.

Examples:
  fusadocs export --kind fsc --input brake.yaml
  fusadocs export --kind allocation --input brake.json --format md --out ./docs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.kind, "kind", "", "document kind: "+kindNames())
	f.StringVar(&o.input, "input", "", "snapshot file (YAML or JSON)")
	f.StringVar(&o.system, "system", "", "override the snapshot's system name")
	f.StringVar(&o.out, "out", "", "output directory (default: configured output_dir)")
	f.StringVar(&o.format, "format", "xlsx", "output format: xlsx or md")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, o exportOptions) error {
	kind, err := report.ParseKind(o.kind)
	if err != nil {
		return err
	}
	sink, err := render.ForFormat(o.format)
	if err != nil {
		return err
	}
	snap, err := session.ReadSnapshotFile(o.input)
	if err != nil {
		return err
	}
	if o.system != "" {
		snap.System = o.system
	}
	dir := o.out
	if dir == "" {
		dir = a.cfg.OutputDir
	}

	opts := tools.SettingsFromConfig(a.cfg).Report
	opts.Generated = timeNow()
	doc, check, err := report.Build(kind, snap.Dataset, opts)
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	for _, w := range check.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	if !check.Valid {
		return fmt.Errorf("cannot generate %s: %w", kind.Title(), errors.New(strings.Join(check.Errors, "; ")))
	}

	path, err := render.Save(sink, dir, doc, opts.Generated)
	if err != nil {
		return fmt.Errorf("exporting %s: %w", kind, err)
	}
	a.log.Info("document exported", zap.String("kind", string(kind)), zap.String("path", path))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func kindNames() string {
	names := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
