package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wardwatch/internal/enrich"
	"wardwatch/internal/filter"
	"wardwatch/internal/model"
	"wardwatch/internal/review"
	"wardwatch/internal/runner"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively acknowledge new postings",
	Long:  "Scrapes all boards, shows the postings you have not seen before, and commits the ones you acknowledge so they stop appearing as new.",
	RunE:  runReview,
}

var reviewBrowserFallback bool

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().BoolVar(&reviewBrowserFallback, "browser-fallback", false, "retry blocked boards with a headless browser")
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := buildStore(cfg, false, logger)
	if err != nil {
		logger.Error("failed to open seen state", "error", err)
		return err
	}
	defer closeStore()

	client := newHTTPClient(cfg)
	useFallback := reviewBrowserFallback || cfg.Scrape.BrowserFallback
	sources, renderer, err := buildSources(cfg, client, useFallback, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		return err
	}
	if renderer != nil {
		defer renderer.Close()
	}
	if len(sources) == 0 {
		return errors.New("no hospitals to scrape")
	}

	var enricher *enrich.Enricher
	if cfg.Scrape.EnrichDetailTitles {
		enricher = enrich.New(client, cfg.Scrape.EnrichDetailMaxRequests, logger)
	}

	engine := filter.NewEngine(cfg.Role, cfg.Hospitals)
	r := runner.New(sources, engine, enricher, store, cfg.Scrape.Parallelism, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := r.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	if len(result.New) == 0 {
		logger.Info("no new postings to review")
		return nil
	}

	acked, err := review.Run(result.New)
	if err != nil {
		return err
	}
	if len(acked) == 0 {
		logger.Info("nothing acknowledged, seen state untouched")
		return nil
	}

	if err := store.Save(acked); err != nil {
		commitErr := &model.StateCommitError{Err: err}
		logger.Error("state commit failed", "error", commitErr)
		return commitErr
	}
	logger.Info("acknowledged postings committed", "count", len(acked))
	return nil
}
