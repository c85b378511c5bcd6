// Package scheduler drives repeated runs for the watch command.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// RunFunc executes one complete scrape run.
type RunFunc func(ctx context.Context) error

// Scheduler reruns the pipeline on a fixed interval.
type Scheduler struct {
	run      RunFunc
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler that calls run every interval.
func New(run RunFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop: one immediate run, then one per tick. It returns
// nil when ctx is cancelled (graceful shutdown). Run failures are logged
// and the loop keeps going; a broken board tonight may be fine tomorrow.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
