package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/config"
	"github.com/HendryAvila/fusadocs/internal/logging"
	"github.com/HendryAvila/fusadocs/internal/server"
)

// timeNow is swapped by tests to freeze output file names.
var timeNow = time.Now

// app carries state shared by the subcommands once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fusadocs",
		Short: "ISO 26262 functional safety documentation MCP server",
		Long: `fusadocs parses the safety analysis text an assistant writes (HARA, FSRs,
allocation, safety mechanisms, reviews), validates it and exports Excel or
Markdown work products. Run "fusadocs serve" from your assistant's MCP config:

  {
    "mcpServers": {
      "fusadocs": {"command": "fusadocs", "args": ["serve"]}
    }
  }`,
		Version:           server.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.fusadocs/fusadocs.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("data-dir", "", "session database directory (default: $HOME/.fusadocs)")
	flags.String("output-dir", "", "directory for exported documents (default: <data-dir>/documents)")

	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("output_dir", flags.Lookup("output-dir"))

	root.AddCommand(
		newServeCmd(a),
		newExportCmd(a),
		newSnapshotCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	a.cfg = cfg
	a.log = log.With(zap.String("command", cmd.Name()))
	return nil
}
