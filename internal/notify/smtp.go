package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// SMTPSender sends mail through a plain SMTP relay with AUTH PLAIN, for
// deployments without a SendGrid account.
type SMTPSender struct {
	addr     string // host:port
	username string
	password string
	from     string
	logger   *logging.Logger
}

// SMTPConfig holds configuration for the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPSender creates an SMTP email sender. Returns nil when no host is
// configured.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger,
	}
}

// Send delivers the message through the relay.
func (s *SMTPSender) Send(_ context.Context, msg EmailMessage) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	host := s.addr[:strings.LastIndex(s.addr, ":")]
	auth := smtp.PlainAuth("", s.username, s.password, host)
	if err := smtp.SendMail(s.addr, auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		s.logger.Error("smtp send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
	return nil
}
