package mail

import (
	"context"

	"github.com/skcgolf/skc-api/internal/logging"
)

// NewLogMailer writes notifications to the log instead of sending them.
func NewLogMailer(baseURL string) Mailer {
	return sender{
		baseURL: baseURL,
		send: func(_ context.Context, e Event) error {
			logging.For("mail").Info("mail not sent, log transport",
				"kind", e.Kind, "login", e.Login, "email", e.Email, "link", link(e))
			return nil
		},
	}
}
