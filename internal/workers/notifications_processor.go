// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/pkg/config"
)

// MailSender matches smtp.SendMail
type MailSender func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationProcessor tells supervisors about rejected counts
type NotificationProcessor struct {
	cfg      config.NotificationsConfig
	cache    ports.CacheRepository
	sendMail MailSender
	logger   *slog.Logger
}

// NewNotificationProcessor creates a new notification processor. cache may be nil.
func NewNotificationProcessor(cfg config.NotificationsConfig, cache ports.CacheRepository, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		cfg:      cfg,
		cache:    cache,
		sendMail: smtp.SendMail,
		logger:   logger.With(slog.String("processor", "notification")),
	}
}

// WithMailSender replaces the SMTP transport
func (p *NotificationProcessor) WithMailSender(send MailSender) *NotificationProcessor {
	p.sendMail = send
	return p
}

// HandleCountConflict records and announces a conflict
func (p *NotificationProcessor) HandleCountConflict(ctx context.Context, t *asynq.Task) error {
	var payload CountConflictPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	data := payload.ConflictData
	p.logger.WarnContext(ctx, "count conflict",
		slog.String("business_id", payload.BusinessID.String()),
		slog.String("product_id", payload.ProductID.String()),
		slog.String("product_name", data.ProductName),
		slog.Int("expected", data.Expected),
		slog.Int("actual", data.Actual))

	if p.cache != nil {
		key := DailyStatKey(payload.BusinessID, StatConflicts, payload.DetectedAt)
		if _, err := p.cache.Increment(ctx, key); err != nil {
			p.logger.WarnContext(ctx, "failed to increment conflict stats",
				slog.String("error", err.Error()))
		}
	}

	if p.cfg.SMTPAddr == "" || len(p.cfg.ConflictRecipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Count conflict on %s", data.ProductName)
	body := fmt.Sprintf(
		"A device counted %s expecting %d units on hand, but the recorded quantity was %d.\r\n"+
			"The count was not applied. Product: %s. Business: %s.\r\n",
		data.ProductName, data.Expected, data.Actual, payload.ProductID, payload.BusinessID)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		p.cfg.From, strings.Join(p.cfg.ConflictRecipients, ", "), subject, body,
	))

	var auth smtp.Auth
	if p.cfg.SMTPUser != "" {
		host, _, err := net.SplitHostPort(p.cfg.SMTPAddr)
		if err != nil {
			return fmt.Errorf("invalid smtp address: %w", err)
		}
		auth = smtp.PlainAuth("", p.cfg.SMTPUser, p.cfg.SMTPPassword, host)
	}

	if err := p.sendMail(p.cfg.SMTPAddr, auth, p.cfg.From, p.cfg.ConflictRecipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.InfoContext(ctx, "conflict notification sent",
		slog.Int("recipients", len(p.cfg.ConflictRecipients)))
	return nil
}
