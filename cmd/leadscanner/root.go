package main

import (
	"github.com/spf13/cobra"

	"LeadScanner/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "leadscanner",
		Short: "Discover B2B sales leads in fresh business news",
		Long: `leadscanner pulls recent articles from news feeds and web search, reads
their bodies and turns them into scored sales leads for the configured
product catalog. Every run finishes within a soft deadline.

Example usage:
  leadscanner run --query "factory expansion" --deadline 30s
  leadscanner serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $LEAD_SCANNER_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(opts), newServeCmd(opts))
	return root
}

func (o *rootOptions) load() config.Config {
	cfg := config.LoadFrom(o.configPath)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg
}
