package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/config"
	"github.com/fyrsmithlabs/digestd/internal/logging"
)

// maxErrorBodyLen caps how much of an error response body gets logged.
const maxErrorBodyLen = 512

// WebhookClient posts messages to a Slack incoming webhook.
// An unset webhook URL disables delivery entirely.
type WebhookClient struct {
	webhookURL config.Secret
	client     *http.Client
	logger     *logging.Logger
}

// NewWebhookClient creates a delivery client.
func NewWebhookClient(webhookURL config.Secret, logger *logging.Logger) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("notify"),
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *WebhookClient) Enabled() bool {
	return c.webhookURL.IsSet()
}

// Deliver posts the message to the webhook. When delivery is disabled it
// returns nil without a request. Callers treat returned errors as
// best-effort failures; nothing here retries.
func (c *WebhookClient) Deliver(ctx context.Context, msg *Message) error {
	if !c.Enabled() {
		c.logger.Debug(ctx, "delivery disabled, skipping webhook post")
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL.Value(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info(ctx, "digest delivered", zap.Int("blocks", len(msg.Blocks)))
	return nil
}
