package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"reportflow/internal/model"
	"reportflow/internal/workflow"

	"go.uber.org/zap"
)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// EmailChannel delivers workflow events as plain-text email over SMTP.
type EmailChannel struct {
	cfg    EmailConfig
	logger *zap.Logger
}

func NewEmailChannel(cfg EmailConfig, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, logger: logger}
}

func (c *EmailChannel) Name() string { return model.ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, event workflow.Event, recipients []model.User) error {
	addrs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.Email != "" {
			addrs = append(addrs, r.Email)
		}
	}
	if len(addrs) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[reportflow] %s", event.ReportTitle)
	body := strings.Join([]string{
		"From: " + c.cfg.From,
		"To: " + strings.Join(addrs, ", "),
		"Subject: " + subject,
		"",
		event.Message,
		"",
		"Report ID: " + event.ReportID.String(),
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, c.cfg.From, addrs, []byte(body)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	c.logger.Debug("email notification sent",
		zap.Int("recipients", len(addrs)),
		zap.String("type", event.Type))
	return nil
}
