package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/fusadocs/internal/session"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "snapshot <session-id>",
		Short: "Write a session's records as a YAML or JSON snapshot",
		Long: `Write a session's records and workflow position as a snapshot. The file can be
imported with fusa_session_start (snapshot_path) or fed to "fusadocs export".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.New(session.Config{DataDir: a.cfg.DataDir})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.ExportSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := session.EncodeSnapshot(snap, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "snapshot format: yaml or json")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	return cmd
}
