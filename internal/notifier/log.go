// Package notifier delivers new postings. Delivery success is what
// authorizes the seen-state commit, so Notify must only return nil when
// the listings actually went out.
package notifier

import (
	"log/slog"

	"wardwatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new postings to the logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(listings []model.Listing) error {
	for _, l := range listings {
		args := []any{"hospital", l.HospitalID, "title", l.Title, "job_type", l.JobType, "url", l.URL}
		if l.Location != "" {
			args = append(args, "location", l.Location)
		}
		if l.DatePosted != "" {
			args = append(args, "date_posted", l.DatePosted)
		}
		n.logger.Info("new posting", args...)
	}
	return nil
}
