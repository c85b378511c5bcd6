package adapter

import (
	"context"
	"errors"
	"testing"

	"wardwatch/internal/model"
)

type stubSource struct {
	id       string
	listings []model.Listing
	err      error
	calls    int
}

func (s *stubSource) HospitalID() string { return s.id }

func (s *stubSource) Fetch(ctx context.Context) ([]model.Listing, error) {
	s.calls++
	return s.listings, s.err
}

func TestFallback_UsedOnBlockedFirstRequest(t *testing.T) {
	primary := &stubSource{
		id:  "h1",
		err: &model.TransportError{StatusCode: 403, Blocked: true, Err: errors.New("challenge")},
	}
	renderer := &stubRenderer{html: `<html><body>
		<a href="/jobs/view/9">Registered Nurse - Surgical</a>
	</body></html>`}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	listings, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Used() {
		t.Error("expected fallback to be used")
	}
	if renderer.calls != 1 {
		t.Errorf("expected 1 render, got %d", renderer.calls)
	}
	if len(listings) != 1 || listings[0].Title != "Registered Nurse - Surgical" {
		t.Errorf("unexpected listings: %+v", listings)
	}
}

func TestFallback_UsedOnPlainClientError(t *testing.T) {
	primary := &stubSource{
		id:  "h1",
		err: &model.TransportError{StatusCode: 404, Err: errors.New("not found")},
	}
	renderer := &stubRenderer{html: `<html><body></body></html>`}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Used() {
		t.Error("expected fallback for a 4xx first request")
	}
}

func TestFallback_NotUsedWithPartialResults(t *testing.T) {
	primary := &stubSource{
		id:       "h1",
		listings: []model.Listing{{URL: "https://x/1", Title: "RN"}},
		err:      &model.TransportError{StatusCode: 403, Blocked: true},
	}
	renderer := &stubRenderer{}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	listings, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected the primary error to surface")
	}
	if f.Used() {
		t.Error("fallback must not run once the primary collected pages")
	}
	if renderer.calls != 0 {
		t.Errorf("expected 0 renders, got %d", renderer.calls)
	}
	if len(listings) != 1 {
		t.Errorf("expected partial results to be kept, got %d", len(listings))
	}
}

func TestFallback_NotUsedForLaterPageRejection(t *testing.T) {
	// An empty first page followed by a 404 on page 2 leaves zero
	// listings, but the board itself answered; rendering it would not
	// help.
	primary := &stubSource{
		id: "h1",
		err: &paginationError{page: 1, err: &model.TransportError{
			StatusCode: 404, Err: errors.New("not found"),
		}},
	}
	renderer := &stubRenderer{}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected the primary error to surface")
	}
	if f.Used() || renderer.calls != 0 {
		t.Error("fallback must not run for a rejection after the opening page")
	}
}

func TestFallback_UsedForWrappedFirstPageRejection(t *testing.T) {
	primary := &stubSource{
		id: "h1",
		err: &paginationError{page: 0, err: &model.TransportError{
			StatusCode: 403, Blocked: true,
		}},
	}
	renderer := &stubRenderer{html: `<html><body><a href="/jobs/view/9">RN</a></body></html>`}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	listings, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Used() || len(listings) != 1 {
		t.Errorf("expected fallback results, used=%v listings=%d", f.Used(), len(listings))
	}
}

func TestFallback_NotUsedOnServerError(t *testing.T) {
	primary := &stubSource{
		id:  "h1",
		err: &model.TransportError{StatusCode: 503, Err: errors.New("down")},
	}
	renderer := &stubRenderer{}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.Used() || renderer.calls != 0 {
		t.Error("fallback must not run for server errors")
	}
}

func TestFallback_BothFailJoinsErrors(t *testing.T) {
	primaryErr := &model.TransportError{StatusCode: 403, Blocked: true}
	primary := &stubSource{id: "h1", err: primaryErr}
	renderer := &stubRenderer{err: errors.New("render failed")}

	f := NewFallbackSource(primary, "https://hospital.example.com/jobs", renderer, discardLogger())

	_, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Error("expected the original transport error to remain unwrappable")
	}
	if !f.Used() {
		t.Error("expected fallback attempt to be recorded")
	}
}
