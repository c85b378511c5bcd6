package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"wardwatch/internal/model"
)

// Options bounds pagination for all adapter variants.
type Options struct {
	PageSize         int    // api-paginated page size
	MaxPages         int    // hard page cap regardless of server-reported totals
	SearchText       string // api-paginated server-side search text
	ExpandActionsMax int    // browser-rendered "view more" click cap
}

// pager yields one page of listings at a time. Implementations own their
// cursor state (offset, next-page URL, expand count) for the duration of
// a single Fetch.
type pager interface {
	fetchPage(ctx context.Context, page int) (listings []model.Listing, done bool, err error)
}

// paginationError records which page of a fetch failed, so the fallback
// can tell an opening-request rejection from a mid-pagination one.
type paginationError struct {
	page int
	err  error
}

func (e *paginationError) Error() string { return fmt.Sprintf("page %d: %v", e.page+1, e.err) }

func (e *paginationError) Unwrap() error { return e.err }

// paginate drives a pager until it signals done, fails, or hits maxPages.
// Listings from pages already fetched are returned alongside the error so
// a mid-pagination failure still yields partial results.
func paginate(ctx context.Context, p pager, maxPages int) ([]model.Listing, error) {
	var all []model.Listing
	for page := 0; page < maxPages; page++ {
		listings, done, err := p.fetchPage(ctx, page)
		all = append(all, listings...)
		if err != nil {
			return all, &paginationError{page: page, err: err}
		}
		if done {
			break
		}
	}
	return all, nil
}

// resolveURL resolves href against base, returning href unchanged when it
// is already absolute or base is unparseable.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// collapseWhitespace folds runs of whitespace into single spaces and trims.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
