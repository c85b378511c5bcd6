package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wardwatch/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scrape on an interval until stopped",
	Long:  "Runs the full pipeline on the configured watch_interval, delivering and committing new postings each cycle. Blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&flagDumpRaw, "dump-raw", false, "also write the pre-filter collection each cycle")
	watchCmd.Flags().BoolVar(&flagBrowserFallback, "browser-fallback", false, "retry blocked boards with a headless browser")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.WatchInterval.String(),
		"hospitals", len(cfg.Hospitals),
		"state_backend", cfg.State.Backend,
	)

	opts := runOptions{
		deliver:         true,
		dumpRaw:         flagDumpRaw,
		browserFallback: flagBrowserFallback || cfg.Scrape.BrowserFallback,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(func(ctx context.Context) error {
		return executeRun(ctx, cfg, logger, opts)
	}, cfg.WatchInterval, logger)

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
