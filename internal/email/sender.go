package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"greendrake/estates/internal/config"
)

// Sender delivers a fully formatted message (headers and body) to the given recipients.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender delivers mail through net/smtp with PLAIN auth.
type SMTPSender struct {
	from   string
	auth   smtp.Auth
	addr   string
	logger *zap.Logger
}

// NewSMTPSender returns an SMTP sender, or a LoggingSender when no SMTP host is configured.
func NewSMTPSender(cfg *config.Config, logger *zap.Logger) Sender {
	if cfg.SmtpHost == "" {
		logger.Info("SMTP host not configured, using logging email sender")
		return &LoggingSender{logger: logger}
	}

	return &SMTPSender{
		from:   cfg.SmtpFromAddress,
		auth:   smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost),
		addr:   fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
		logger: logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	s.logger.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

// LoggingSender writes messages to the log instead of delivering them.
type LoggingSender struct {
	logger *zap.Logger
}

func NewLoggingSender(logger *zap.Logger) *LoggingSender {
	return &LoggingSender{logger: logger}
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.logger.Info("email logged",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.ByteString("message", rawMessage),
	)
	return nil
}

// singleLine flattens control characters so user text cannot start a new header.
func singleLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsControl), " ")
}

// BuildMessage renders a plain-text RFC 5322 message.
func BuildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("To: " + singleLine(strings.Join(to, ", ")) + "\r\n")
	sb.WriteString("From: " + singleLine(from) + "\r\n")
	sb.WriteString("Subject: " + singleLine(subject) + "\r\n")
	sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.TrimRight(body, "\r\n"), "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
