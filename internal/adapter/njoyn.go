package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wardwatch/internal/model"
)

// NjoynAdapter scrapes an Njoyn job board (the html-paginated variant).
// Njoyn renders listing tables server-side with "next" links or numbered
// page links, and its markup varies per hospital, so row parsing leans on
// link targets rather than table structure.
type NjoynAdapter struct {
	hospitalID string
	baseURL    string
	client     *Client
	opts       Options
	logger     *slog.Logger
}

// NewNjoynAdapter creates an adapter for the Njoyn board at boardURL.
func NewNjoynAdapter(hospitalID, boardURL string, client *Client, opts Options, logger *slog.Logger) *NjoynAdapter {
	return &NjoynAdapter{
		hospitalID: hospitalID,
		baseURL:    boardURL,
		client:     client,
		opts:       opts,
		logger:     logger,
	}
}

func (a *NjoynAdapter) HospitalID() string { return a.hospitalID }

// Fetch follows listing pages until no next link remains or the page cap
// is reached. Already-visited URLs terminate pagination (some boards link
// pages in a cycle).
func (a *NjoynAdapter) Fetch(ctx context.Context) ([]model.Listing, error) {
	a.logger.Info("njoyn fetch start", "hospital", a.hospitalID, "url", a.baseURL)
	p := &njoynPager{a: a, next: a.baseURL, visited: make(map[string]bool)}
	return paginate(ctx, p, a.opts.MaxPages)
}

// njoynPager owns the next-page cursor for one Fetch.
type njoynPager struct {
	a       *NjoynAdapter
	next    string
	visited map[string]bool
}

func (p *njoynPager) fetchPage(ctx context.Context, page int) ([]model.Listing, bool, error) {
	a := p.a
	if p.next == "" || p.visited[p.next] {
		return nil, true, nil
	}
	current := p.next
	p.visited[current] = true

	html, err := a.client.GetHTML(ctx, current)
	if err != nil {
		return nil, false, fmt.Errorf("njoyn page fetch for %s: %w", a.hospitalID, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, &model.ParseError{Hospital: a.hospitalID, Err: err}
	}

	listings := parseNjoynRows(doc, current, a.hospitalID)
	p.next = findNextPageURL(current, doc, p.visited)
	return listings, p.next == "", nil
}

// parseNjoynRows extracts listings from the job-detail anchors on one
// page. Pure: resolves relative hrefs against pageURL, never fetches.
// Rows whose anchor text is generic ("View Details") keep that text as
// the title; the detail enricher replaces it later if budget allows.
func parseNjoynRows(doc *goquery.Document, pageURL, hospitalID string) []model.Listing {
	var listings []model.Listing
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := collapseWhitespace(sel.Text())
		if href == "" || text == "" {
			return
		}
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		if !strings.Contains(strings.ToLower(href), "jobdetail") {
			return
		}

		title := extractNjoynTitle(sel, text)
		if title == "" {
			return
		}

		listings = append(listings, model.Listing{
			URL:        resolveURL(pageURL, href),
			Title:      title,
			JobType:    InferJobType(title, "Full-Time Permanent"),
			HospitalID: hospitalID,
			Raw: map[string]string{
				"link_text": text,
				"href":      href,
			},
		})
	})
	return listings
}

// extractNjoynTitle picks a usable title for a job-detail anchor. The
// anchor text itself wins unless it is generic or suspiciously short, in
// which case the longest substantial cell of the surrounding table row is
// used. Falls back to the anchor text (generic or not) so the enricher
// still has a row to work on.
func extractNjoynTitle(sel *goquery.Selection, fallback string) string {
	if !GenericTitle(fallback) && len(fallback) >= 6 {
		return fallback
	}

	row := sel.Closest("tr")
	if row.Length() == 0 {
		return fallback
	}

	best := ""
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		text := collapseWhitespace(cell.Text())
		if text == "" || len(text) < 6 || GenericTitle(text) {
			return
		}
		if len(text) > len(best) {
			best = text
		}
	})
	if best != "" {
		return best
	}
	return fallback
}

// findNextPageURL locates the page to fetch after currentURL: an explicit
// "next" link wins, otherwise the lowest-numbered joblisting page link
// above the current page number. Returns "" when pagination is exhausted.
func findNextPageURL(currentURL string, doc *goquery.Document, visited map[string]bool) string {
	currentPage, hasCurrent := pageNumber(currentURL)

	var explicitNext []string
	type numbered struct {
		page int
		url  string
	}
	var paginated []numbered

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		absolute := resolveURL(currentURL, href)
		if absolute == currentURL || visited[absolute] {
			return
		}

		text := strings.ToLower(collapseWhitespace(sel.Text()))
		// "suivant" shows up on the French-first Ontario boards.
		if strings.Contains(text, "next") || strings.Contains(text, "suivant") || text == ">" || text == ">>" {
			explicitNext = append(explicitNext, absolute)
			return
		}

		if strings.Contains(strings.ToLower(absolute), "page=joblisting") {
			if n, ok := pageNumber(absolute); ok {
				paginated = append(paginated, numbered{page: n, url: absolute})
			}
		}
	})

	if len(explicitNext) > 0 {
		return explicitNext[0]
	}
	if len(paginated) == 0 {
		return ""
	}

	best := numbered{page: -1}
	for _, cand := range paginated {
		if hasCurrent && cand.page <= currentPage {
			continue
		}
		if best.page == -1 || cand.page < best.page {
			best = cand
		}
	}
	if best.page == -1 {
		return ""
	}
	return best.url
}

var pageParamKeys = []string{"pg", "page", "pagenum", "pagenumber"}

// pageNumber extracts a page index from the URL's query string.
func pageNumber(rawURL string) (int, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	qs := u.Query()
	for _, key := range pageParamKeys {
		if v := qs.Get(key); v != "" {
			n := 0
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// genericLinkText is the anchor/cell text that is navigation chrome, not
// a job title.
var genericLinkText = map[string]bool{
	"details":          true,
	"detail":           true,
	"view":             true,
	"view details":     true,
	"view job details": true,
	"job details":      true,
	"apply":            true,
	"apply now":        true,
	"learn more":       true,
	"more":             true,
}

var jobIDOnlyRegex = regexp.MustCompile(`(?i)^j\d{4,}-\d{4,}$`)

// GenericTitle reports whether title is placeholder link text or a bare
// requisition ID, the rows the detail enricher should resolve.
func GenericTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return genericLinkText[t] || jobIDOnlyRegex.MatchString(t)
}

// detailKeepParams are the Njoyn detail-URL query keys that identify the
// posting. Everything else (tbtoken, chk) is a short-lived session token
// that breaks refetching.
var detailKeepParams = map[string]bool{
	"clid": true, "page": true, "jobid": true, "brid": true, "lang": true,
}

// SanitizeDetailURL strips volatile query tokens from an Njoyn detail URL
// so detail pages can be refetched deterministically. URLs with no stable
// keys are returned unchanged.
func SanitizeDetailURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	qs := u.Query()
	kept := url.Values{}
	for key, vals := range qs {
		if detailKeepParams[strings.ToLower(key)] && len(vals) > 0 {
			kept.Set(key, vals[0])
		}
	}
	if len(kept) == 0 {
		return rawURL
	}
	u.RawQuery = kept.Encode()
	return u.String()
}
