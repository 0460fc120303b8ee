package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type Config struct {
	Addr     string
	Username string
	Password string
	From     string
}

// Sender delivers transactional mail over SMTP. Used only when the
// in-app channel cannot reach the recipient (banned accounts).
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	if strings.TrimSpace(s.cfg.Addr) == "" || strings.TrimSpace(s.cfg.From) == "" {
		return fmt.Errorf("email sender is not configured")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient address is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	host, _, err := net.SplitHostPort(s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("parse smtp addr: %w", err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n")

	if err := smtp.SendMail(s.cfg.Addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
