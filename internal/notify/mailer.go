package notify

import (
	"errors"

	gomail "gopkg.in/gomail.v2"

	"github.com/quickdesk/quickdesk/internal/config"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp transport not configured")

// Mailer sends a single outbound message. Implementations report delivery
// handoff only; no confirmation beyond the returned error is assumed.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over SMTP via gomail.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	from string
}

// NewSMTPMailer builds the transport.
func NewSMTPMailer(cfg config.SMTPConfig, from string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, from: from}
}

// Send dials the configured SMTP host and sends one plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		return ErrNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return dialer.DialAndSend(msg)
}
