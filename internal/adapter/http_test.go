package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardwatch/internal/model"
)

func TestClientGetHTML_SetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := testClient(srv)
	body, err := c.GetHTML(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<html></html>" {
		t.Errorf("body = %q", body)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q, want test-agent", gotUA)
	}
}

func TestClientGetHTML_ClientErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.GetHTML(context.Background(), srv.URL)

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !te.ClientError() {
		t.Errorf("expected ClientError() for 404, status = %d", te.StatusCode)
	}
	if te.Blocked {
		t.Error("plain 404 must not look blocked")
	}
}

func TestClientGetHTML_BlockDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-RAY", "8abc-YYZ")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("<html>Attention Required! | Cloudflare</html>"))
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.GetHTML(context.Background(), srv.URL)

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if !te.Blocked {
		t.Error("expected Blocked for a Cloudflare challenge response")
	}
}

func TestClientGetHTML_BlockDetectionOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Checking your browser before accessing. Cloudflare.
			<script src="/cdn-cgi/challenge-platform/x.js"></script></body></html>`))
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.GetHTML(context.Background(), srv.URL)

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError for a challenge served with 200, got %T: %v", err, err)
	}
	if !te.Blocked {
		t.Error("expected Blocked")
	}
}

func TestClientGetHTML_ProxiedHeadersOn200AreFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Boards behind Cloudflare carry these on every response.
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-RAY", "8abc-YYZ")
		w.Write([]byte("<html><body><a href='/jobdetail?jobid=1'>RN</a></body></html>"))
	}))
	defer srv.Close()

	c := testClient(srv)
	if _, err := c.GetHTML(context.Background(), srv.URL); err != nil {
		t.Fatalf("ordinary proxied response misclassified: %v", err)
	}
}

func TestClientPostJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.Write([]byte(`{"total": 7}`))
	}))
	defer srv.Close()

	c := testClient(srv)
	var out struct {
		Total int `json:"total"`
	}
	if err := c.PostJSON(context.Background(), srv.URL, map[string]any{"offset": 0}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Total != 7 {
		t.Errorf("total = %d, want 7", out.Total)
	}
}

func TestLooksLikeBlock(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		want    bool
	}{
		{
			name:    "cloudflare headers",
			status:  403,
			headers: map[string]string{"Server": "cloudflare", "CF-RAY": "1"},
			want:    true,
		},
		{
			name:   "cdn-cgi challenge body",
			status: 403,
			body:   `<script src="/cdn-cgi/challenge-platform/x.js"></script>`,
			want:   true,
		},
		{
			name:   "captcha on 403",
			status: 403,
			body:   "please solve this captcha",
			want:   true,
		},
		{
			name:   "captcha mention on 500 is not a block",
			status: 500,
			body:   "captcha service crashed",
			want:   false,
		},
		{
			name:   "plain 403",
			status: 403,
			body:   "forbidden",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Set(k, v)
			}
			if got := looksLikeBlock(resp, tt.body); got != tt.want {
				t.Errorf("looksLikeBlock = %v, want %v", got, tt.want)
			}
		})
	}
}
