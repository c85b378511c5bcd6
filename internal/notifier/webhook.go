package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"wardwatch/internal/model"
)

// Ensure WebhookNotifier implements model.Notifier.
var _ model.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier posts new postings to an HTTP endpoint as one JSON
// payload. One request per run keeps delivery all-or-nothing, which is
// what the commit gate needs.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookNotifier returns a notifier that posts to webhookURL.
func NewWebhookNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type webhookPayload struct {
	Count    int             `json:"count"`
	SentAt   time.Time       `json:"sent_at"`
	Listings []model.Listing `json:"listings"`
}

// Notify sends all listings in a single POST. A non-2xx response is a
// delivery failure.
func (n *WebhookNotifier) Notify(listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Count:    len(listings),
		SentAt:   time.Now().UTC(),
		Listings: listings,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(preview))
	}

	n.logger.Info("webhook delivery complete", "count", len(listings))
	return nil
}
