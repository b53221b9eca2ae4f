package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"LeadScanner/internal/app"
	"LeadScanner/internal/logging"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve discovery over HTTP",
		Long: `Start the HTTP API:
  POST /api/v1/leads/discover   run one discovery
  GET  /api/v1/runs/:id/leads   leads stored for a run
  GET  /healthz, GET /metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.load()
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
