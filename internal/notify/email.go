package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"marketlive/internal/config"
	"marketlive/internal/domain/outbox"
	"marketlive/internal/logger"

	"go.uber.org/zap"
)

// EmailSender sends one HTML message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.User,
		password: cfg.Password,
		from:     cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(html)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// LogSender stands in for SMTP when no relay is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, _ string) error {
	logger.Info("Email delivery skipped, no SMTP relay configured",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// NewEmailSender picks SMTP when a host is configured.
func NewEmailSender(cfg config.SMTPConfig) EmailSender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

type EmailSink struct {
	sender EmailSender
}

func NewEmailSink(sender EmailSender) *EmailSink {
	return &EmailSink{sender: sender}
}

func (s *EmailSink) Deliver(ctx context.Context, task *outbox.Task) error {
	var p EmailPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("%w: bad email payload: %v", ErrPermanent, err)
	}
	if p.To == "" {
		return fmt.Errorf("%w: email task without recipient", ErrPermanent)
	}
	return s.sender.Send(ctx, p.To, p.Subject, p.HTML)
}
