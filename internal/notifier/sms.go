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

// SMSConfig holds the HTTP SMS gateway settings.
type SMSConfig struct {
	GatewayURL string
	APIKey     string
	Sender     string
}

// SMSChannel posts workflow events to an HTTP SMS gateway, one request per
// recipient phone number.
type SMSChannel struct {
	cfg    SMSConfig
	client *http.Client
	logger *zap.Logger
}

func NewSMSChannel(cfg SMSConfig, logger *zap.Logger) *SMSChannel {
	return &SMSChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (c *SMSChannel) Name() string { return model.ChannelSMS }

func (c *SMSChannel) Send(ctx context.Context, event workflow.Event, recipients []model.User) error {
	var lastErr error
	sent := 0

	for _, r := range recipients {
		if r.Phone == "" {
			continue
		}

		payload, _ := json.Marshal(map[string]string{
			"to":      r.Phone,
			"from":    c.cfg.Sender,
			"message": event.Message,
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("sms gateway returned %d", resp.StatusCode)
			continue
		}
		sent++
	}

	c.logger.Debug("sms notifications sent",
		zap.Int("sent", sent),
		zap.String("type", event.Type))
	return lastErr
}
