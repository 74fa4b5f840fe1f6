/**
 * @description
 * Outbound mail for magic-link sign in.
 *
 * @dependencies
 * - standard "net/smtp"
 * - backend/internal/config
 *
 * @notes
 * - With no SMTP host configured, links are written to the log (local development).
 */

package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
)

// Mailer delivers a plain-text message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks the SMTP mailer when a host is configured
func New(cfg *config.Config) Mailer {
	if cfg.Mail.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		Addr:     net.JoinHostPort(cfg.Mail.Host, strconv.Itoa(cfg.Mail.Port)),
		Host:     cfg.Mail.Host,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}
}

// SMTPMailer sends through an authenticated SMTP relay
type SMTPMailer struct {
	Addr     string
	Host     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	msg := buildMessage(m.From, to, subject, body)
	if err := smtp.SendMail(m.Addr, auth, envelopeAddress(m.From), []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}

// LogMailer prints messages instead of sending them
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info("📧 Mail to %s: %s\n%s", to, subject, body)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// envelopeAddress strips a display name: "Glimpse <a@b>" -> "a@b"
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}
