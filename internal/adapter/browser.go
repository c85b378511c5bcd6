package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// BrowserConfig controls the headless renderer.
type BrowserConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	ExpandActionsMax  int // cap on "view more" style expansion clicks
}

// BrowserRenderer renders pages with headless Chrome via chromedp. It is
// the Renderer for browser-rendered boards and the fallback secondary for
// blocked api/html boards. One allocator is shared across renders.
type BrowserRenderer struct {
	cfg         BrowserConfig
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *slog.Logger
}

// NewBrowserRenderer starts a headless Chrome allocator. Callers must
// Close it when the run finishes.
func NewBrowserRenderer(cfg BrowserConfig, logger *slog.Logger) *BrowserRenderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserRenderer{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}
}

// Close cancels the allocator context.
func (r *BrowserRenderer) Close() {
	r.allocCancel()
}

// Render navigates to url, clicks any expand controls up to the configured
// cap, and returns the resulting DOM.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.cfg.NavigationTimeout)
	defer cancel()

	// Propagate caller cancellation into the chromedp context.
	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-taskCtx.Done():
		}
	}()

	var html string
	actions := []chromedp.Action{
		r.userAgentAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		r.expandAction(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run for %s: %w", url, err)
	}
	return html, nil
}

func (r *BrowserRenderer) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if r.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// expandClickScript clicks the first visible load-more control and reports
// whether it found one. eRecruit boards label theirs "View More" or
// "Load More"; some use "Show All".
const expandClickScript = `(() => {
	const labels = ["view more", "load more", "show more", "show all", "more jobs"];
	const candidates = document.querySelectorAll("a, button, input[type=button], input[type=submit]");
	for (const el of candidates) {
		const text = ((el.innerText || el.value || "") + "").trim().toLowerCase();
		if (!text) continue;
		if (labels.some(l => text.includes(l)) && el.offsetParent !== null) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// expandAction clicks expand controls until none remain or the cap is hit.
func (r *BrowserRenderer) expandAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < r.cfg.ExpandActionsMax; i++ {
			var clicked bool
			if err := chromedp.Evaluate(expandClickScript, &clicked).Do(ctx); err != nil {
				return fmt.Errorf("expand click %d: %w", i, err)
			}
			if !clicked {
				return nil
			}
			if err := chromedp.Sleep(750 * time.Millisecond).Do(ctx); err != nil {
				return err
			}
		}
		if r.logger != nil {
			r.logger.Debug("expand action cap reached", "cap", r.cfg.ExpandActionsMax)
		}
		return nil
	})
}
