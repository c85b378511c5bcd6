// Package enrich resolves real job titles for listings whose board row
// only carried placeholder link text ("View Details", a bare requisition
// ID). One extra detail-page fetch per listing, capped by a run-wide
// request budget.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"wardwatch/internal/adapter"
	"wardwatch/internal/model"
)

// Getter fetches a detail page. *adapter.Client satisfies it.
type Getter interface {
	GetHTML(ctx context.Context, url string) (string, error)
}

// Enricher replaces generic listing titles with titles scraped from the
// detail pages. The budget is shared across all hospitals of a run, so an
// Enricher must be created per run and passed to every task.
type Enricher struct {
	getter Getter
	budget atomic.Int64
	logger *slog.Logger
}

// New creates an Enricher with maxRequests detail fetches to spend.
// maxRequests <= 0 disables enrichment.
func New(getter Getter, maxRequests int, logger *slog.Logger) *Enricher {
	e := &Enricher{getter: getter, logger: logger}
	e.budget.Store(int64(maxRequests))
	return e
}

// Enrich returns listings with generic titles replaced where a detail
// fetch succeeded within budget. Failures and budget exhaustion leave the
// listing unchanged; enrichment never drops a row.
func (e *Enricher) Enrich(ctx context.Context, listings []model.Listing) []model.Listing {
	out := make([]model.Listing, len(listings))
	copy(out, listings)

	for i := range out {
		if !adapter.GenericTitle(out[i].Title) {
			continue
		}
		if e.budget.Add(-1) < 0 {
			e.logger.Debug("enrichment budget exhausted", "url", out[i].URL)
			return out
		}

		title, ok := e.fetchTitle(ctx, out[i].URL)
		if !ok {
			continue
		}
		e.logger.Debug("enriched title", "url", out[i].URL, "title", title)
		out[i].Title = title
		out[i].JobType = adapter.InferJobType(title, out[i].JobType)
	}
	return out
}

func (e *Enricher) fetchTitle(ctx context.Context, detailURL string) (string, bool) {
	html, err := e.getter.GetHTML(ctx, adapter.SanitizeDetailURL(detailURL))
	if err != nil {
		e.logger.Warn("detail fetch failed", "url", detailURL, "err", err)
		return "", false
	}

	title := ExtractDetailTitle(html)
	if title == "" || adapter.GenericTitle(title) {
		return "", false
	}
	return title, true
}

// ExtractDetailTitle pulls a job title out of a detail page. Checked in
// order: h1, h2, og:title, a "Job Title" table row, the document title.
func ExtractDetailTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, selector := range []string{"h1", "h2"} {
		if t := usableHeading(doc, selector); t != "" {
			return t
		}
	}

	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := cleanTitle(content); t != "" {
			return t
		}
	}

	if t := titleFromTableRow(doc); t != "" {
		return t
	}

	return cleanTitle(doc.Find("title").First().Text())
}

func usableHeading(doc *goquery.Document, selector string) string {
	found := ""
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t := cleanTitle(sel.Text())
		if t == "" {
			return true
		}
		found = t
		return false
	})
	return found
}

// titleFromTableRow handles boards that render the posting as a
// label/value table with a "Job Title" row.
func titleFromTableRow(doc *goquery.Document) string {
	found := ""
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		if !strings.Contains(label, "job title") && !strings.Contains(label, "position title") {
			return true
		}
		if t := cleanTitle(cells.Eq(1).Text()); t != "" {
			found = t
			return false
		}
		return true
	})
	return found
}

// cleanTitle collapses whitespace and drops strings too short or too
// site-chromey to be a job title.
func cleanTitle(s string) string {
	t := strings.Join(strings.Fields(s), " ")
	if len(t) < 4 || len(t) > 200 {
		return ""
	}
	low := strings.ToLower(t)
	for _, chrome := range []string{"careers", "job search", "job board", "current opportunities"} {
		if low == chrome {
			return ""
		}
	}
	return t
}
