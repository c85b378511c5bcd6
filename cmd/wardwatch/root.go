package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wardwatch/internal/adapter"
	"wardwatch/internal/config"
	"wardwatch/internal/model"
	"wardwatch/internal/notifier"
	"wardwatch/internal/ratelimit"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "wardwatch",
	Short: "Hospital job-board watcher",
	Long:  "Wardwatch scrapes hospital career boards, filters postings against a role profile, and reports the ones you have not seen before.",
	// Default to `run` so a bare invocation (cron lines, systemd timers)
	// does one scrape.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: WARDWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	registerRunFlags(rootCmd)
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > WARDWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("WARDWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "webhook":
		logger.Info("using webhook notifier")
		httpClient := &http.Client{Timeout: 30 * time.Second}
		return notifier.NewWebhookNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildSources creates one source per enabled hospital, in configuration
// order. The browser renderer is created lazily: only boards that need it
// (browser-rendered type, or any board when the fallback is on) pay the
// Chrome startup cost.
func buildSources(cfg *config.Config, client *adapter.Client, useFallback bool, logger *slog.Logger) ([]model.Source, *adapter.BrowserRenderer, error) {
	opts := adapter.Options{
		PageSize:         cfg.Scrape.PageSize,
		MaxPages:         cfg.Scrape.MaxPages,
		SearchText:       cfg.Scrape.SearchText,
		ExpandActionsMax: cfg.Scrape.ExpandActionsMax,
	}

	var renderer *adapter.BrowserRenderer
	getRenderer := func() adapter.Renderer {
		if renderer == nil {
			renderer = adapter.NewBrowserRenderer(adapter.BrowserConfig{
				UserAgent:         cfg.Scrape.UserAgent,
				NavigationTimeout: cfg.Scrape.Timeout,
				ExpandActionsMax:  cfg.Scrape.ExpandActionsMax,
			}, logger)
		}
		return renderer
	}

	var sources []model.Source
	for _, h := range cfg.Hospitals {
		if !h.IsEnabled() {
			logger.Debug("hospital disabled, skipping", "hospital", h.ID)
			continue
		}

		var src model.Source
		switch h.Type {
		case config.TypeAPIPaginated:
			wd, err := adapter.NewWorkdayAdapter(h.ID, h.URL, client, opts, logger)
			if err != nil {
				return nil, renderer, err
			}
			src = wd
		case config.TypeHTMLPaginated:
			src = adapter.NewNjoynAdapter(h.ID, h.URL, client, opts, logger)
		case config.TypeBrowserRendered:
			src = adapter.NewERecruitAdapter(h.ID, h.URL, getRenderer(), logger)
		default:
			// validate() rejects unknown types; belt and suspenders.
			return nil, renderer, fmt.Errorf("hospital %s has unknown type %q", h.ID, h.Type)
		}

		if useFallback && h.Type != config.TypeBrowserRendered {
			src = adapter.NewFallbackSource(src, h.URL, getRenderer(), logger)
		}

		sources = append(sources, src)
		logger.Info("registered hospital", "hospital", h.ID, "type", h.Type)
	}
	return sources, renderer, nil
}

func newHTTPClient(cfg *config.Config) *adapter.Client {
	limiter := ratelimit.NewHostLimiter(cfg.Scrape.RequestsPerSecond, 1)
	return adapter.NewClient(cfg.Scrape.Timeout, cfg.Scrape.UserAgent, limiter)
}
