package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wardwatch/internal/model"
)

// Renderer produces the DOM of a page after client-side scripts have run.
// The chromedp implementation lives in browser.go; tests swap in a stub.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ERecruitAdapter scrapes an eRecruit board (the browser-rendered
// variant). eRecruit ships an empty shell document and fills the listing
// table from script, so a plain GET sees no jobs; the adapter needs a
// Renderer. The rendered board is one logical page once the bounded
// expand actions have run.
type ERecruitAdapter struct {
	hospitalID string
	baseURL    string
	renderer   Renderer
	logger     *slog.Logger
}

// NewERecruitAdapter creates an adapter for the eRecruit board at boardURL.
func NewERecruitAdapter(hospitalID, boardURL string, renderer Renderer, logger *slog.Logger) *ERecruitAdapter {
	return &ERecruitAdapter{
		hospitalID: hospitalID,
		baseURL:    boardURL,
		renderer:   renderer,
		logger:     logger,
	}
}

func (a *ERecruitAdapter) HospitalID() string { return a.hospitalID }

func (a *ERecruitAdapter) Fetch(ctx context.Context) ([]model.Listing, error) {
	a.logger.Info("erecruit fetch start", "hospital", a.hospitalID, "url", a.baseURL)

	html, err := a.renderer.Render(ctx, a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("erecruit render for %s: %w", a.hospitalID, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &model.ParseError{Hospital: a.hospitalID, Err: err}
	}
	return parseERecruitRows(doc, a.baseURL, a.hospitalID), nil
}

// parseERecruitRows extracts listings from a rendered eRecruit document.
// Posting links are the anchors whose target mentions "job"; duplicates
// from repeated anchors (title link plus a "view" button on the same row)
// collapse to the first occurrence.
func parseERecruitRows(doc *goquery.Document, pageURL, hospitalID string) []model.Listing {
	var listings []model.Listing
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := collapseWhitespace(sel.Text())
		if href == "" || text == "" {
			return
		}
		low := strings.ToLower(href)
		if strings.HasPrefix(low, "javascript:") || strings.HasPrefix(low, "#") {
			return
		}
		if !strings.Contains(low, "job") {
			return
		}

		title := text
		if GenericTitle(title) || len(title) < 6 {
			title = extractNjoynTitle(sel, text)
		}

		u := resolveURL(pageURL, href)
		if seen[u] {
			return
		}
		seen[u] = true

		listings = append(listings, model.Listing{
			URL:        u,
			Title:      title,
			JobType:    InferJobType(title, "Unknown"),
			HospitalID: hospitalID,
			Raw: map[string]string{
				"link_text": text,
				"href":      href,
			},
		})
	})
	return listings
}
