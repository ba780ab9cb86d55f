package mail

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func strPtr(s string) *string { return &s }

func testUser() *models.User {
	return &models.User{
		Login:         "alice",
		Email:         "alice@x.com",
		LangKey:       "en",
		ActivationKey: strPtr("act-key"),
		ResetKey:      strPtr("reset-key"),
	}
}

func TestRender(t *testing.T) {
	subject, body, err := render(newEvent(KindActivation, testUser(), "http://skc"))
	require.NoError(t, err)
	assert.Equal(t, "SKC account activation", subject)
	assert.Contains(t, body, "http://skc/#/activate?key=act-key")
	assert.Contains(t, body, "Dear alice")

	_, body, err = render(newEvent(KindReset, testUser(), "http://skc"))
	require.NoError(t, err)
	assert.Contains(t, body, "http://skc/#/reset/finish?key=reset-key")

	_, body, err = render(newEvent(KindCreation, testUser(), "http://skc"))
	require.NoError(t, err)
	assert.Contains(t, body, "http://skc/#/reset/finish?key=reset-key")
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailer(t *testing.T) {
	d := &fakeDialer{}
	m := newSMTPMailer("skc@localhost", "http://skc", d)

	require.NoError(t, m.SendActivationEmail(context.Background(), testUser()))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"alice@x.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"SKC account activation"}, d.sent[0].GetHeader("Subject"))

	d.err = errors.New("connection refused")
	err := m.SendPasswordResetMail(context.Background(), testUser())
	assert.ErrorContains(t, err, "connection refused")

	err = m.SendCreationEmail(context.Background(), &models.User{Login: "nomail"})
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaMailer(t *testing.T) {
	w := &fakeWriter{}
	m := newKafkaMailer(w, "http://skc")

	require.NoError(t, m.SendPasswordResetMail(context.Background(), testUser()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "alice", string(w.msgs[0].Key))

	var e Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &e))
	assert.Equal(t, Event{
		Kind:    KindReset,
		Login:   "alice",
		Email:   "alice@x.com",
		LangKey: "en",
		Key:     "reset-key",
		BaseURL: "http://skc",
	}, e)
}

type MockMailer struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockMailer) SendActivationEmail(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(ctx, user).Error(0)
}

func (m *MockMailer) SendPasswordResetMail(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(ctx, user).Error(0)
}

func (m *MockMailer) SendCreationEmail(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(ctx, user).Error(0)
}

func TestAsync(t *testing.T) {
	next := &MockMailer{}
	next.On("SendActivationEmail", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Login == "alice"
	})).Return(nil).Once()
	next.On("SendCreationEmail", mock.Anything, mock.Anything).Return(errors.New("down")).Once()

	a := NewAsync(next, time.Second)
	user := testUser()

	assert.NoError(t, a.SendActivationEmail(context.Background(), user))
	user.Login = "changed-after-return"
	assert.NoError(t, a.SendCreationEmail(context.Background(), testUser()))

	a.Wait()
	next.AssertExpectations(t)
}
