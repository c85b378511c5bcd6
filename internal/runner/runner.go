// Package runner orchestrates one scrape run: every enabled hospital is
// fetched (in bounded parallel), enriched, aggregated in configuration
// order, deduplicated, filtered, and diffed against the seen state. One
// hospital failing never takes down the others.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"wardwatch/internal/enrich"
	"wardwatch/internal/filter"
	"wardwatch/internal/model"
)

// fallbackReporter is implemented by sources that may switch to a
// secondary fetch path.
type fallbackReporter interface {
	Used() bool
}

// Runner holds the per-run pipeline dependencies. Build a fresh one per
// run; the enricher's budget is run-scoped.
type Runner struct {
	sources     []model.Source // configuration order
	engine      *filter.Engine
	enricher    *enrich.Enricher // nil disables enrichment
	store       model.SeenStore
	parallelism int
	logger      *slog.Logger
}

// New wires a Runner. sources must be in hospital configuration order;
// the run report and all aggregates follow that order.
func New(sources []model.Source, engine *filter.Engine, enricher *enrich.Enricher, store model.SeenStore, parallelism int, logger *slog.Logger) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{
		sources:     sources,
		engine:      engine,
		enricher:    enricher,
		store:       store,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Result is everything one run produced. Raw is the deduplicated
// pre-filter aggregate, Matched the post-filter aggregate, New the
// matched listings whose URL the seen state does not contain yet.
type Result struct {
	Report  model.RunReport
	Raw     []model.Listing
	Matched []model.Listing
	New     []model.Listing
}

// NewURLs returns the URL set of the run's new listings, ready for a
// state commit.
func (r *Result) NewURLs() map[string]struct{} {
	urls := make(map[string]struct{}, len(r.New))
	for _, l := range r.New {
		urls[l.URL] = struct{}{}
	}
	return urls
}

type hospitalOutcome struct {
	listings []model.Listing
	fallback bool
	err      error
}

// Run executes the pipeline once. The returned error covers run-level
// failures only (loading the seen state); per-hospital failures land in
// the report.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	seen, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading seen state: %w", err)
	}
	r.logger.Info("run start", "hospitals", len(r.sources), "seen_urls", len(seen))

	// One outcome slot per source, written exactly once by its own task.
	outcomes := make([]hospitalOutcome, len(r.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, src := range r.sources {
		g.Go(func() error {
			outcomes[i] = r.fetchOne(gctx, src)
			return nil
		})
	}
	g.Wait() // tasks never return errors; failures are per-hospital data

	result := r.aggregate(outcomes, seen)
	result.Report.StartedAt = started
	result.Report.FinishedAt = time.Now()

	r.logger.Info("run finished",
		"raw", len(result.Raw),
		"matched", len(result.Matched),
		"new", len(result.New),
		"failed", len(result.Report.Failed()),
	)
	return result, nil
}

// fetchOne runs fetch and enrichment for a single hospital, catching the
// error instead of propagating it.
func (r *Runner) fetchOne(ctx context.Context, src model.Source) hospitalOutcome {
	listings, err := src.Fetch(ctx)
	if err != nil {
		r.logger.Error("hospital fetch failed",
			"hospital", src.HospitalID(), "collected", len(listings), "err", err)
	}

	if r.enricher != nil && len(listings) > 0 {
		listings = r.enricher.Enrich(ctx, listings)
	}

	out := hospitalOutcome{listings: listings, err: err}
	if fr, ok := src.(fallbackReporter); ok {
		out.fallback = fr.Used()
	}
	return out
}

// aggregate assembles the report and the three listing aggregates in
// configuration order. Duplicate URLs across hospitals keep the first
// occurrence only.
func (r *Runner) aggregate(outcomes []hospitalOutcome, seen map[string]struct{}) *Result {
	result := &Result{}
	inRun := make(map[string]struct{})

	for i, src := range r.sources {
		out := outcomes[i]

		var kept []model.Listing
		for _, l := range out.listings {
			if _, dup := inRun[l.URL]; dup {
				continue
			}
			inRun[l.URL] = struct{}{}
			kept = append(kept, l)
		}
		result.Raw = append(result.Raw, kept...)

		matched := r.engine.Apply(kept)
		result.Matched = append(result.Matched, matched...)

		for _, l := range matched {
			if _, ok := seen[l.URL]; !ok {
				result.New = append(result.New, l)
			}
		}

		report := model.HospitalReport{
			HospitalID:      src.HospitalID(),
			Status:          model.StatusOK,
			RawCount:        len(out.listings),
			NormalizedCount: len(kept),
			FilteredCount:   len(matched),
			FallbackUsed:    out.fallback,
		}
		if out.err != nil {
			report.Error = out.err.Error()
			if len(out.listings) > 0 {
				report.Status = model.StatusPartial
			} else {
				report.Status = model.StatusFailed
			}
		}
		result.Report.Hospitals = append(result.Report.Hospitals, report)
	}
	return result
}

// Commit persists the run's new URLs into the seen state. Callers invoke
// it at most once per run, after delivery succeeded or when explicitly
// asked to update state.
func (r *Runner) Commit(result *Result) error {
	urls := result.NewURLs()
	if len(urls) == 0 {
		return nil
	}
	if err := r.store.Save(urls); err != nil {
		return &model.StateCommitError{Err: err}
	}
	r.logger.Info("seen state committed", "added", len(urls))
	return nil
}
