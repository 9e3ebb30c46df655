package main

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/server"
	"github.com/HendryAvila/fusadocs/internal/updater"
)

func newServeCmd(a *app) *cobra.Command {
	var noUpdateCheck bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := server.New(a.cfg, a.log)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			if !noUpdateCheck {
				go checkForUpdates(cmd.Context(), a.log)
			}

			a.log.Info("serving MCP on stdio",
				zap.String("version", server.Version),
				zap.String("data_dir", a.cfg.DataDir),
				zap.String("output_dir", a.cfg.OutputDir))
			return mcpserver.ServeStdio(s)
		},
	}
	cmd.Flags().BoolVar(&noUpdateCheck, "no-update-check", false, "skip the background release check")
	return cmd
}

// checkForUpdates logs a notice when a newer release exists. Failures are
// logged at Debug only.
func checkForUpdates(ctx context.Context, log *zap.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := updater.Check(ctx, server.Version)
	if err != nil {
		log.Debug("release check failed", zap.Error(err))
		return
	}
	if res.UpdateAvailable {
		log.Info("update available",
			zap.String("current", res.CurrentVersion),
			zap.String("latest", res.LatestVersion),
			zap.String("release", res.ReleaseURL))
	}
}
