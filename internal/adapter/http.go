package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wardwatch/internal/model"
	"wardwatch/internal/ratelimit"
)

// Client wraps an http.Client with the shared per-host rate limiter, a
// fixed User-Agent, and transport-error classification. All adapters and
// the detail enricher go through it.
type Client struct {
	hc        *http.Client
	limiter   *ratelimit.HostLimiter
	userAgent string
}

// NewClient builds the shared HTTP client. limiter may be nil in tests.
func NewClient(timeout time.Duration, userAgent string, limiter *ratelimit.HostLimiter) *Client {
	return &Client{
		hc:        &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// GetHTML fetches url and returns the response body as a string.
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJSON posts payload as JSON to url and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitURL(req.Context(), req.URL.String()); err != nil {
			return nil, err
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &model.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	preview := string(body[:min(len(body), 4096)])
	if resp.StatusCode >= 400 {
		return nil, &model.TransportError{
			StatusCode: resp.StatusCode,
			Blocked:    looksLikeBlock(resp, preview),
			Err:        fmt.Errorf("%s %s", req.Method, req.URL),
		}
	}

	// Cloudflare serves some challenge pages with HTTP 200. Without this
	// check they parse as empty boards and the fallback never fires.
	if challengeBody(preview) {
		return nil, &model.TransportError{
			StatusCode: resp.StatusCode,
			Blocked:    true,
			Err:        fmt.Errorf("challenge page from %s %s", req.Method, req.URL),
		}
	}
	return body, nil
}

// looksLikeBlock detects bot-challenge responses that come back as
// otherwise-ordinary errors. Workday and Njoyn boards sit behind
// Cloudflare, which answers challenges with 403/429 and telltale markers.
func looksLikeBlock(resp *http.Response, bodyPreview string) bool {
	server := strings.ToLower(resp.Header.Get("Server"))
	cfRay := resp.Header.Get("CF-RAY")
	if strings.Contains(server, "cloudflare") && cfRay != "" {
		return true
	}

	if challengeBody(bodyPreview) {
		return true
	}

	return resp.StatusCode == http.StatusForbidden &&
		strings.Contains(strings.ToLower(bodyPreview), "captcha")
}

// challengeBody spots the challenge-page markers regardless of status.
// Header signals (Server: cloudflare, CF-RAY) are deliberately excluded:
// ordinary responses from proxied boards carry them too.
func challengeBody(bodyPreview string) bool {
	low := strings.ToLower(bodyPreview)
	return strings.Contains(low, "/cdn-cgi/") ||
		(strings.Contains(low, "cloudflare") && strings.Contains(low, "checking your browser")) ||
		(strings.Contains(low, "attention required") && strings.Contains(low, "cloudflare"))
}
