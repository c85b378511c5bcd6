package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"wardwatch/internal/model"
)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// WorkdayAdapter fetches listings from a Workday career site (the
// api-paginated variant).
type WorkdayAdapter struct {
	hospitalID string
	host       string
	tenant     string
	site       string
	client     *Client
	opts       Options
	logger     *slog.Logger
}

// NewWorkdayAdapter creates an adapter for the Workday board at boardURL.
// The JSON endpoint (host, tenant, site) is inferred from the public
// career-site URL.
func NewWorkdayAdapter(hospitalID, boardURL string, client *Client, opts Options, logger *slog.Logger) (*WorkdayAdapter, error) {
	host, tenant, site, err := parseWorkdaySite(boardURL)
	if err != nil {
		return nil, fmt.Errorf("workday adapter for %s: %w", hospitalID, err)
	}
	return &WorkdayAdapter{
		hospitalID: hospitalID,
		host:       host,
		tenant:     tenant,
		site:       site,
		client:     client,
		opts:       opts,
		logger:     logger,
	}, nil
}

func (a *WorkdayAdapter) HospitalID() string { return a.hospitalID }

func (a *WorkdayAdapter) endpoint() string {
	return fmt.Sprintf("%s/wday/cxs/%s/%s/jobs", a.host, a.tenant, a.site)
}

// Fetch paginates through the listing endpoint until a short page, the
// server-reported total, or the page cap.
func (a *WorkdayAdapter) Fetch(ctx context.Context) ([]model.Listing, error) {
	a.logger.Info("workday fetch start", "hospital", a.hospitalID, "endpoint", a.endpoint())
	p := &workdayPager{a: a, total: -1}
	return paginate(ctx, p, a.opts.MaxPages)
}

// workdayPager holds the in-flight cursor state for one Fetch.
type workdayPager struct {
	a     *WorkdayAdapter
	total int // -1 until the first response reports it
}

func (p *workdayPager) fetchPage(ctx context.Context, page int) ([]model.Listing, bool, error) {
	a := p.a
	offset := page * a.opts.PageSize

	body := workdayListingRequest{
		AppliedFacets: map[string]any{},
		Limit:         a.opts.PageSize,
		Offset:        offset,
		SearchText:    a.opts.SearchText,
	}

	var resp workdayListingResponse
	if err := a.client.PostJSON(ctx, a.endpoint(), body, &resp); err != nil {
		return nil, false, fmt.Errorf("workday listing fetch for %s: %w", a.hospitalID, err)
	}
	p.total = resp.Total

	listings := make([]model.Listing, 0, len(resp.JobPostings))
	for _, raw := range resp.JobPostings {
		l, ok := normalizeWorkday(raw, a.host, a.hospitalID)
		if ok {
			listings = append(listings, l)
		}
	}

	done := len(resp.JobPostings) == 0 ||
		len(resp.JobPostings) < a.opts.PageSize ||
		(p.total >= 0 && offset+len(resp.JobPostings) >= p.total)
	return listings, done, nil
}

// normalizeWorkday maps one raw posting to a Listing. Pure: no network
// I/O, missing optional fields become empty strings. Returns ok=false for
// rows with no title or detail path (nothing to identify them by).
func normalizeWorkday(raw workdayListing, host, hospitalID string) (model.Listing, bool) {
	title := collapseWhitespace(raw.Title)
	path := strings.TrimSpace(raw.ExternalPath)
	if title == "" || path == "" {
		return model.Listing{}, false
	}

	return model.Listing{
		URL:        resolveURL(host, path),
		Title:      title,
		JobType:    InferJobType(title, "Full-Time Permanent"),
		Location:   collapseWhitespace(raw.LocationsText),
		HospitalID: hospitalID,
		DatePosted: parseWorkdayPostedOn(raw.PostedOn),
		Raw: map[string]string{
			"posted_on":     raw.PostedOn,
			"external_path": raw.ExternalPath,
			"bullet_fields": strings.Join(raw.BulletFields, "; "),
		},
	}, true
}

// parseWorkdayPostedOn keeps only ISO-like dates. Most tenants return
// relative strings ("Posted Today") which carry no stable date.
func parseWorkdayPostedOn(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return ""
	}
	if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
		return t.Format("2006-01-02")
	}
	return ""
}

// parseWorkdaySite infers the JSON endpoint parts from a public Workday
// career-site URL. Those typically look like
//
//	https://<host>/<locale>/<site>
//	https://<host>/<site>
//
// and the endpoint is https://<host>/wday/cxs/<tenant>/<site>/jobs where
// <tenant> is the first host label.
func parseWorkdaySite(boardURL string) (host, tenant, site string, err error) {
	u, err := url.Parse(strings.TrimSpace(boardURL))
	if err != nil {
		return "", "", "", fmt.Errorf("parse workday url %q: %w", boardURL, err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return "", "", "", fmt.Errorf("workday url %q has no host", boardURL)
	}

	segs := []string{}
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			segs = append(segs, p)
		}
	}
	switch {
	case len(segs) >= 2 && looksLikeLocale(segs[0]):
		site = segs[1]
	case len(segs) >= 1:
		site = segs[0]
	default:
		return "", "", "", fmt.Errorf("cannot infer workday site from %q", boardURL)
	}

	host = u.Scheme + "://" + u.Host
	tenant = strings.Split(u.Host, ".")[0]
	return host, tenant, site, nil
}

// looksLikeLocale accepts path segments like "en-US" or "fr-CA".
func looksLikeLocale(s string) bool {
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[:2]) && isAlpha(s[3:])
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
