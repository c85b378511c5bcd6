package adapter

import (
	"context"
	"errors"
	"log/slog"

	"wardwatch/internal/model"
)

// FallbackSource wraps a primary source with a browser-rendered secondary
// for the same board URL. The secondary runs at most once, and only when
// the primary's opening request was rejected (4xx) or answered with a
// bot-challenge page. Mid-pagination failures keep the primary's partial
// results instead; a rendered refetch of the whole board would reorder
// and duplicate them.
type FallbackSource struct {
	primary  model.Source
	boardURL string
	renderer Renderer
	logger   *slog.Logger
	used     bool
}

// NewFallbackSource wraps primary with a browser secondary for boardURL.
func NewFallbackSource(primary model.Source, boardURL string, renderer Renderer, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{
		primary:  primary,
		boardURL: boardURL,
		renderer: renderer,
		logger:   logger,
	}
}

func (f *FallbackSource) HospitalID() string { return f.primary.HospitalID() }

// Used reports whether the last Fetch fell through to the secondary.
func (f *FallbackSource) Used() bool { return f.used }

func (f *FallbackSource) Fetch(ctx context.Context) ([]model.Listing, error) {
	f.used = false

	listings, err := f.primary.Fetch(ctx)
	if err == nil || len(listings) > 0 || !rejectedOutright(err) {
		return listings, err
	}

	f.logger.Warn("primary source rejected, trying browser fallback",
		"hospital", f.primary.HospitalID(), "err", err)
	f.used = true

	secondary := NewERecruitAdapter(f.primary.HospitalID(), f.boardURL, f.renderer, f.logger)
	fallbackListings, fbErr := secondary.Fetch(ctx)
	if fbErr != nil {
		// Surface the original rejection; the fallback failure rides along.
		return nil, errors.Join(err, fbErr)
	}
	return fallbackListings, nil
}

// rejectedOutright reports whether err is the kind of first-request
// failure the fallback exists for: a client-side rejection or a
// recognized block page, on the opening request. Server errors and
// timeouts are not candidates, a rendered retry would hit the same
// outage; later pages are not candidates either, even when every page
// so far came back empty.
func rejectedOutright(err error) bool {
	var pe *paginationError
	if errors.As(err, &pe) && pe.page > 0 {
		return false
	}
	var te *model.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Blocked || te.ClientError()
}
