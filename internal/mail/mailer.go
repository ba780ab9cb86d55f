// Package mail delivers account lifecycle notifications.
package mail

import (
	"context"
	"fmt"

	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/models"
)

// Mailer sends the account notifications. Implementations must be safe
// for concurrent use.
type Mailer interface {
	SendActivationEmail(ctx context.Context, user *models.User) error
	SendPasswordResetMail(ctx context.Context, user *models.User) error
	SendCreationEmail(ctx context.Context, user *models.User) error
}

type Kind string

const (
	KindActivation Kind = "activation"
	KindReset      Kind = "password_reset"
	KindCreation   Kind = "creation"
)

// Event is the transport-neutral description of one notification.
type Event struct {
	Kind    Kind   `json:"kind"`
	Login   string `json:"login"`
	Email   string `json:"email"`
	LangKey string `json:"langKey"`
	Key     string `json:"key,omitempty"`
	BaseURL string `json:"base_url"`
}

func newEvent(kind Kind, user *models.User, baseURL string) Event {
	e := Event{
		Kind:    kind,
		Login:   user.Login,
		Email:   user.Email,
		LangKey: user.LangKey,
		BaseURL: baseURL,
	}
	switch kind {
	case KindActivation:
		if user.ActivationKey != nil {
			e.Key = *user.ActivationKey
		}
	case KindReset, KindCreation:
		if user.ResetKey != nil {
			e.Key = *user.ResetKey
		}
	}
	return e
}

// sender adapts a single send function to the Mailer interface.
type sender struct {
	baseURL string
	send    func(ctx context.Context, e Event) error
}

func (s sender) SendActivationEmail(ctx context.Context, user *models.User) error {
	return s.send(ctx, newEvent(KindActivation, user, s.baseURL))
}

func (s sender) SendPasswordResetMail(ctx context.Context, user *models.User) error {
	return s.send(ctx, newEvent(KindReset, user, s.baseURL))
}

func (s sender) SendCreationEmail(ctx context.Context, user *models.User) error {
	return s.send(ctx, newEvent(KindCreation, user, s.baseURL))
}

// New builds the transport named by MAIL_TRANSPORT, wrapped so that
// delivery happens off the request path.
func New(cfg *config.Config) (Mailer, func(), error) {
	var (
		m       Mailer
		closeFn = func() {}
	)
	switch cfg.MailTransport {
	case "", "log":
		m = NewLogMailer(cfg.MailBaseURL)
	case "smtp":
		smtp, err := NewSMTPMailer(cfg)
		if err != nil {
			return nil, nil, err
		}
		m = smtp
	case "kafka":
		k := NewKafkaMailer(cfg.KafkaBrokers, cfg.KafkaMailTopic, cfg.MailBaseURL)
		m = k
		closeFn = func() { _ = k.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown MAIL_TRANSPORT %q", cfg.MailTransport)
	}

	async := NewAsync(m, DefaultSendTimeout)
	return async, func() {
		async.Wait()
		closeFn()
	}, nil
}
