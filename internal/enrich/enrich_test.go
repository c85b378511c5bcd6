package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"wardwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGetter struct {
	pages map[string]string // sanitized URL -> html
	err   error
	calls []string
}

func (g *stubGetter) GetHTML(ctx context.Context, url string) (string, error) {
	g.calls = append(g.calls, url)
	if g.err != nil {
		return "", g.err
	}
	return g.pages[url], nil
}

func TestEnrich_ReplacesGenericTitles(t *testing.T) {
	getter := &stubGetter{pages: map[string]string{
		"https://h.njoyn.com/d?jobid=1": `<html><body><h1>Registered Nurse - Oncology Part Time</h1></body></html>`,
	}}
	e := New(getter, 10, discardLogger())

	in := []model.Listing{
		{URL: "https://h.njoyn.com/d?jobid=1", Title: "View Details", JobType: "Full-Time Permanent"},
		{URL: "https://h.njoyn.com/real", Title: "Pharmacist"},
	}

	out := e.Enrich(context.Background(), in)
	if out[0].Title != "Registered Nurse - Oncology Part Time" {
		t.Errorf("title = %q, want enriched title", out[0].Title)
	}
	if out[0].JobType != "Part-Time" {
		t.Errorf("job type = %q, want re-inferred Part-Time", out[0].JobType)
	}
	if out[1].Title != "Pharmacist" {
		t.Errorf("non-generic title changed to %q", out[1].Title)
	}
	if len(getter.calls) != 1 {
		t.Errorf("expected 1 detail fetch, got %d", len(getter.calls))
	}
	if in[0].Title != "View Details" {
		t.Error("input slice mutated")
	}
}

func TestEnrich_BudgetIsSharedAndExhaustible(t *testing.T) {
	getter := &stubGetter{pages: map[string]string{}}
	e := New(getter, 2, discardLogger())

	generic := func(id string) model.Listing {
		return model.Listing{URL: "https://h/x?jobid=" + id, Title: "View Details"}
	}

	e.Enrich(context.Background(), []model.Listing{generic("1")})
	e.Enrich(context.Background(), []model.Listing{generic("2")})
	e.Enrich(context.Background(), []model.Listing{generic("3"), generic("4")})

	if len(getter.calls) != 2 {
		t.Errorf("expected 2 fetches across the whole run, got %d", len(getter.calls))
	}
}

func TestEnrich_FetchFailureLeavesTitle(t *testing.T) {
	getter := &stubGetter{err: errors.New("timeout")}
	e := New(getter, 10, discardLogger())

	out := e.Enrich(context.Background(), []model.Listing{
		{URL: "https://h/x", Title: "Apply Now"},
	})
	if out[0].Title != "Apply Now" {
		t.Errorf("title = %q, want unchanged", out[0].Title)
	}
	if len(out) != 1 {
		t.Error("enrichment must never drop rows")
	}
}

func TestEnrich_DisabledWithZeroBudget(t *testing.T) {
	getter := &stubGetter{}
	e := New(getter, 0, discardLogger())

	e.Enrich(context.Background(), []model.Listing{{URL: "https://h/x", Title: "View Details"}})
	if len(getter.calls) != 0 {
		t.Errorf("expected no fetches, got %d", len(getter.calls))
	}
}

func TestEnrich_SanitizesDetailURL(t *testing.T) {
	getter := &stubGetter{pages: map[string]string{}}
	e := New(getter, 10, discardLogger())

	e.Enrich(context.Background(), []model.Listing{
		{URL: "https://h.njoyn.com/x?jobid=J0825-0001&tbtoken=zzz", Title: "View Details"},
	})

	if len(getter.calls) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(getter.calls))
	}
	if strings.Contains(getter.calls[0], "tbtoken") {
		t.Errorf("fetched URL %q still carries the volatile token", getter.calls[0])
	}
}

func TestExtractDetailTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 wins",
			html: `<html><head><title>Careers</title></head><body><h1>Registered Nurse</h1><h2>Apply below</h2></body></html>`,
			want: "Registered Nurse",
		},
		{
			name: "h2 when no h1",
			html: `<html><body><h2>Unit Clerk - Part Time</h2></body></html>`,
			want: "Unit Clerk - Part Time",
		},
		{
			name: "og:title",
			html: `<html><head><meta property="og:title" content="Physiotherapist II"></head><body></body></html>`,
			want: "Physiotherapist II",
		},
		{
			name: "job title table row",
			html: `<html><body><table>
				<tr><td>Posting Period</td><td>Aug 2026</td></tr>
				<tr><td>Job Title</td><td>Medical Laboratory Technologist</td></tr>
			</table></body></html>`,
			want: "Medical Laboratory Technologist",
		},
		{
			name: "document title fallback",
			html: `<html><head><title>Dietitian - Casual</title></head><body></body></html>`,
			want: "Dietitian - Casual",
		},
		{
			name: "site chrome rejected",
			html: `<html><head><title>Careers</title></head><body></body></html>`,
			want: "",
		},
		{
			name: "nothing usable",
			html: `<html><body><p>hi</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDetailTitle(tt.html); got != tt.want {
				t.Errorf("ExtractDetailTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
