package mail

import (
	"context"
	"sync"
	"time"

	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/models"
)

const DefaultSendTimeout = 30 * time.Second

// Async hands every send to a goroutine and returns immediately. Failures
// are logged; callers never see them.
type Async struct {
	next    Mailer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Mailer, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

func (a *Async) SendActivationEmail(_ context.Context, user *models.User) error {
	a.dispatch(KindActivation, user, a.next.SendActivationEmail)
	return nil
}

func (a *Async) SendPasswordResetMail(_ context.Context, user *models.User) error {
	a.dispatch(KindReset, user, a.next.SendPasswordResetMail)
	return nil
}

func (a *Async) SendCreationEmail(_ context.Context, user *models.User) error {
	a.dispatch(KindCreation, user, a.next.SendCreationEmail)
	return nil
}

// Wait blocks until in-flight sends finish.
func (a *Async) Wait() {
	a.wg.Wait()
}

func (a *Async) dispatch(kind Kind, user *models.User, send func(context.Context, *models.User) error) {
	// the request may mutate or drop user after we return
	snapshot := *user
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := send(ctx, &snapshot); err != nil {
			logging.For("mail").Warn("mail delivery failed",
				"kind", kind, "login", snapshot.Login, "error", err)
		}
	}()
}
