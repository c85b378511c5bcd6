package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wardwatch/internal/config"
	"wardwatch/internal/enrich"
	"wardwatch/internal/filter"
	"wardwatch/internal/model"
	"wardwatch/internal/output"
	"wardwatch/internal/runner"
	"wardwatch/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape all boards once",
	Long:  "Runs one scrape across all enabled hospitals, writes the output artifacts, and optionally delivers and commits the new postings.",
	RunE:  runRun,
}

var (
	flagDeliver         bool
	flagDryRun          bool
	flagDumpRaw         bool
	flagBrowserFallback bool
	flagUpdateState     bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	registerRunFlags(runCmd)
}

// registerRunFlags is shared with the root command, which defaults to run.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagDeliver, "deliver", false, "send new postings through the configured notifier and commit on success")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "never touch the seen state")
	cmd.Flags().BoolVar(&flagDumpRaw, "dump-raw", false, "also write the pre-filter collection")
	cmd.Flags().BoolVar(&flagBrowserFallback, "browser-fallback", false, "retry blocked boards with a headless browser")
	cmd.Flags().BoolVar(&flagUpdateState, "update-state", false, "commit new postings as seen without delivering")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, cfg, logger, runOptions{
		deliver:         flagDeliver,
		dryRun:          flagDryRun,
		dumpRaw:         flagDumpRaw,
		browserFallback: flagBrowserFallback || cfg.Scrape.BrowserFallback,
		updateState:     flagUpdateState,
	})
}

type runOptions struct {
	deliver         bool
	dryRun          bool
	dumpRaw         bool
	browserFallback bool
	updateState     bool
}

// executeRun is the whole pipeline for one run: scrape, write artifacts,
// deliver, commit. The watch command calls it per tick.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts runOptions) error {
	store, closeStore, err := buildStore(cfg, opts.dryRun, logger)
	if err != nil {
		logger.Error("failed to open seen state", "error", err)
		return err
	}
	defer closeStore()

	client := newHTTPClient(cfg)
	sources, renderer, err := buildSources(cfg, client, opts.browserFallback, logger)
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

	result, err := r.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	if err := writeArtifacts(cfg, result, opts.dumpRaw, logger); err != nil {
		return err
	}

	logger.Info("new postings", "count", len(result.New))

	switch {
	case opts.dryRun:
		logger.Info("dry run, seen state untouched")
		return nil
	case opts.deliver:
		n := setupNotifier(cfg, logger)
		if err := n.Notify(result.New); err != nil {
			logger.Error("delivery failed, seen state not committed", "error", err)
			return err
		}
		return commit(r, result, logger)
	case opts.updateState:
		return commit(r, result, logger)
	default:
		logger.Info("no --deliver or --update-state, seen state untouched")
		return nil
	}
}

// commit persists the run's new URLs. A failure here is the one thing
// that must fail the whole run: the postings went out but would go out
// again next time.
func commit(r *runner.Runner, result *runner.Result, logger *slog.Logger) error {
	if err := r.Commit(result); err != nil {
		logger.Error("state commit failed", "error", err)
		return err
	}
	return nil
}

func writeArtifacts(cfg *config.Config, result *runner.Result, dumpRaw bool, logger *slog.Logger) error {
	writer, err := output.NewWriter(cfg.Output, logger)
	if err != nil {
		return err
	}
	if err := writer.WriteJobsJSON(result.Matched); err != nil {
		return err
	}
	if err := writer.WriteJobsCSV(result.Matched); err != nil {
		return err
	}
	if err := writer.WriteRunReport(result.Report); err != nil {
		return err
	}
	if dumpRaw {
		if err := writer.WriteRawJSON(result.Raw); err != nil {
			return err
		}
	}
	return nil
}

// buildStore opens the configured seen-state backend. The returned close
// function is a no-op for backends without a connection. Dry runs read
// the real backend so the new-posting diff stays honest, but commits
// through it are dropped.
func buildStore(cfg *config.Config, dryRun bool, logger *slog.Logger) (model.SeenStore, func(), error) {
	var store model.SeenStore
	closeStore := func() {}

	switch cfg.State.Backend {
	case "sqlite":
		s, err := state.NewSQLiteStore(cfg.State.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closeStore = s, func() { s.Close() }
	default:
		store = state.NewFileStore(cfg.State.Path)
	}

	if dryRun {
		logger.Info("dry-run mode, nothing will be marked seen")
		return state.NewReadOnlyStore(store), closeStore, nil
	}
	return store, closeStore, nil
}
