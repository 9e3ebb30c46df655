package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/fusadocs/internal/server"
	"github.com/HendryAvila/fusadocs/internal/updater"
)

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fusadocs v%s\n", server.Version)
			if !check {
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			res, err := updater.Check(ctx, server.Version)
			if err != nil {
				return fmt.Errorf("release check: %w", err)
			}
			if res.UpdateAvailable {
				fmt.Fprintf(out, "Update available: v%s -> v%s\n%s\n", res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
			} else {
				fmt.Fprintln(out, "Already at the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "look for a newer release on GitHub")
	return cmd
}
