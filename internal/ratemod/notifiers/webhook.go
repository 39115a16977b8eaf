package notifiers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/daniacca/ratemod/internal/ratemod"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookNotifier delivers warning events via HTTP POST to a webhook
// URL. Delivery retries are handled by the warning manager; a single
// Notify call makes exactly one attempt.
type WebhookNotifier struct {
	id      string
	url     string
	client  *http.Client
	headers http.Header
}

// WebhookOption customizes a webhook notifier.
type WebhookOption func(*WebhookNotifier)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) WebhookOption {
	return func(wn *WebhookNotifier) {
		wn.client.Timeout = d
	}
}

// WithHeader adds a header to every webhook request, for auth tokens
// and the like.
func WithHeader(key, value string) WebhookOption {
	return func(wn *WebhookNotifier) {
		wn.headers.Set(key, value)
	}
}

// NewWebhookNotifier creates a webhook notifier posting to url.
func NewWebhookNotifier(id, url string, opts ...WebhookOption) *WebhookNotifier {
	wn := &WebhookNotifier{
		id:      id,
		url:     url,
		client:  &http.Client{Timeout: defaultWebhookTimeout},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(wn)
	}
	return wn
}

// SetHeader sets a custom header to include in webhook requests
func (wn *WebhookNotifier) SetHeader(key, value string) {
	wn.headers.Set(key, value)
}

// ID returns the notifier ID
func (wn *WebhookNotifier) ID() string {
	return wn.id
}

// Type returns the notifier type
func (wn *WebhookNotifier) Type() string {
	return "webhook"
}

// Notify posts the warning event to the webhook URL. Any status
// outside 2xx counts as a failed delivery.
func (wn *WebhookNotifier) Notify(ctx context.Context, event ratemod.WarningEvent) error {
	payload, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, values := range wn.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", wn.id, resp.StatusCode)
	}

	return nil
}

// Close closes the notifier (no-op for webhook)
func (wn *WebhookNotifier) Close() error {
	return nil
}
