// Package mailer wraps the Resend API behind a narrow interface so services
// can send lifecycle emails without caring about transport, and tests can
// swap in a recorder.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/pkg/config"
)

// Message is one outbound email.
type Message struct {
	To       string
	FromName string
	From     string
	Subject  string
	HTML     string
	ReplyTo  string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender sends through the Resend API.
type ResendSender struct {
	client    *resend.Client
	fromName  string
	fromEmail string
	logger    *zap.Logger
}

// NewResendSender builds a Resend-backed sender from config.
func NewResendSender(cfg config.MailerConfig, logger *zap.Logger) *ResendSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendSender{
		client:    resend.NewClient(cfg.APIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logger:    logger,
	}
}

// Send delivers one message, falling back to the configured from address
// when the message does not carry its own.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = s.fromEmail
	}
	name := msg.FromName
	if name == "" {
		name = s.fromName
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", name, from),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Error("mailer send failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info("mailer sent", zap.String("message_id", sent.Id), zap.String("to", msg.To))
	return nil
}

// NopSender drops messages. Used when outbound mail is disabled.
type NopSender struct {
	logger *zap.Logger
}

// NewNopSender builds a sender that only logs.
func NewNopSender(logger *zap.Logger) *NopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopSender{logger: logger}
}

// Send logs the message instead of delivering it.
func (s *NopSender) Send(_ context.Context, msg Message) error {
	s.logger.Debug("mailer disabled, dropping message", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// FromConfig picks the real or nop sender based on the enabled flag.
func FromConfig(cfg config.MailerConfig, logger *zap.Logger) Sender {
	if cfg.Enabled && cfg.APIKey != "" {
		return NewResendSender(cfg, logger)
	}
	return NewNopSender(logger)
}
