package cli

import (
	"fmt"
	"os"

	"propdesk/config"
	"propdesk/pkg/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
}

// NewRootCommand creates the propdesk command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "propdesk",
		Short: "Real-estate back-office API",
		Long:  "Serves the listings, campaigns, media and live-update API behind the propdesk dashboard.",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides PROPDESK_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and initialises the logger.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.ConfigFile != "" {
		os.Setenv("PROPDESK_CONFIG", opts.ConfigFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	logger.Init(cfg.LogLevel)
	return cfg, nil
}
