package notifier

import (
	"context"
	"fmt"

	"PremarketScanner/internal/httputil"
)

const discordLimit = 2000

// WebhookNotifier posts messages to a Discord-compatible webhook.
type WebhookNotifier struct {
	url    string
	client *httputil.Client
}

// NewWebhookNotifier creates a webhook notifier using client for retries.
func NewWebhookNotifier(url string, client *httputil.Client) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: client}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Send converts the HTML message to Discord markdown and posts it.
func (w *WebhookNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{"content": truncate(ToMarkdown(text), discordLimit)}
	if _, err := w.client.PostJSON(ctx, w.url, payload); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	return nil
}
