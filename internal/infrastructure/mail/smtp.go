// Package mail delivers account mail over SMTP, or to the log when no SMTP
// server is configured.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"lab-checkout/internal/config"
	"lab-checkout/internal/logger"

	"go.uber.org/zap"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := passwordResetMessage(m.from, to, name, link)
	if err := m.send(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}
	logger.Info("Password reset mail sent", zap.String("to", to))
	return nil
}

func passwordResetMessage(from, to, name, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Reset your lab computer checkout password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	if name != "" {
		b.WriteString("Hello " + name + ",\r\n\r\n")
	}
	b.WriteString("Use the link below to choose a new password. It expires in one hour.\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("If you did not ask for a reset, ignore this message.\r\n")
	return []byte(b.String())
}

// LogMailer writes the reset link to the log instead of sending it.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	logger.Info("Password reset requested (mail disabled)",
		zap.String("to", to),
		zap.String("link", link),
	)
	return nil
}
