// Package mailer delivers plain-text email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender is implemented by every mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through a relay. Without a host it only logs the message.
type SMTPMailer struct {
	cfg  config.MailConfig
	logg *logger.Logger
	send sendFunc
	now  func() time.Time
}

// New builds a mailer from configuration.
func New(cfg config.MailConfig, logg *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:  cfg,
		logg: logg,
		send: smtp.SendMail,
		now:  time.Now,
	}
}

// Send delivers msg, or logs it when no relay is configured.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	to := cleanRecipients(msg.To)
	if len(to) == 0 {
		return errors.New("at least one recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !m.cfg.Enabled() {
		if m.logg != nil {
			logCtx := m.logg.WithFields(ctx, map[string]any{
				"to":      strings.Join(to, ","),
				"subject": msg.Subject,
			})
			m.logg.Info(logCtx, "smtp disabled, email logged only")
		}
		return nil
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, to, m.compose(to, msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(to []string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("Date: " + m.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func cleanRecipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		addr = sanitizeHeader(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// header values must not smuggle extra lines.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
