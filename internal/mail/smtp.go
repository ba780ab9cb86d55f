package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/config"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer renders HTML mails and sends them with gomail.
type SMTPMailer struct {
	sender
	from   string
	dialer dialer
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("SMTP_HOST is required for the smtp mail transport")
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return newSMTPMailer(cfg.MailFrom, cfg.MailBaseURL, d), nil
}

func newSMTPMailer(from, baseURL string, d dialer) *SMTPMailer {
	m := &SMTPMailer{from: from, dialer: d}
	m.sender = sender{baseURL: baseURL, send: m.deliver}
	return m
}

func (m *SMTPMailer) deliver(ctx context.Context, e Event) error {
	if e.Email == "" {
		return fmt.Errorf("no email address for %s", e.Login)
	}
	subject, body, err := render(e)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", e.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s mail to %s: %w", e.Kind, e.Email, err)
	}
	return nil
}
