package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/workflow"

	"go.uber.org/zap"
)

// WebhookConfig lists incoming-webhook URLs (Slack- and Teams-style endpoints
// both accept a simple {"text": ...} payload).
type WebhookConfig struct {
	URLs []string
}

// WebhookChannel posts one message per configured webhook. Recipients are
// not addressed individually: a webhook lands in a shared channel.
type WebhookChannel struct {
	cfg    WebhookConfig
	client *http.Client
	logger *zap.Logger
}

func NewWebhookChannel(cfg WebhookConfig, logger *zap.Logger) *WebhookChannel {
	return &WebhookChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (c *WebhookChannel) Name() string { return model.ChannelWebhook }

func (c *WebhookChannel) Send(ctx context.Context, event workflow.Event, _ []model.User) error {
	payload, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("%s (report %s)", event.Message, event.ReportID),
	})

	var lastErr error
	for _, url := range c.cfg.URLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
	}

	c.logger.Debug("webhook notifications posted",
		zap.Int("webhooks", len(c.cfg.URLs)),
		zap.String("type", event.Type))
	return lastErr
}
