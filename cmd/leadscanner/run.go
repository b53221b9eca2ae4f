package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"LeadScanner/internal/app"
	"LeadScanner/internal/logging"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		queries   []string
		deadline  time.Duration
		maxItems  int
		noResolve bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one discovery and print the result as JSON",
		Long: `Run a single discovery with the configured defaults and print the result
to stdout. Logs go to stderr.

Examples:
  leadscanner run
  leadscanner run -q "new plant" -q "hiring engineers" --deadline 20s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.load()
			logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			req := application.DefaultRequest()
			if len(queries) > 0 {
				req.Queries = queries
			}
			if cmd.Flags().Changed("deadline") {
				req.SoftDeadline = deadline
				if req.SafetyMargin >= deadline || req.MinExtractBudget >= deadline {
					req.SafetyMargin, req.MinExtractBudget = 0, 0
				}
			}
			if cmd.Flags().Changed("max-items") {
				req.MaxItems = maxItems
			}
			if noResolve {
				req.ResolveURLs = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := application.Run(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			return result.Err()
		},
	}

	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "search query (repeatable)")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "soft deadline for the whole run")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "cap of articles per source")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip aggregator link resolution")
	return cmd
}
