package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skcgolf/skc-api/internal/cache"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository/repotest"
	"github.com/skcgolf/skc-api/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	repo    *repotest.MemUserRepo
	mailer  *MockMailer
	caches  *cache.Users
	hasher  *security.BCryptHasher
	service *UserService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   repotest.NewMemUserRepo(),
		mailer: nopMailer(),
		caches: cache.NewMemoryUsers(time.Hour, 100),
		hasher: security.NewBCryptHasher(bcrypt.MinCost),
		now:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewUserService(f.repo, f.hasher, f.mailer, f.caches)
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) as(login string) context.Context {
	return security.WithPrincipal(context.Background(), &security.Principal{Login: login})
}

func registration(login, email string) dto.UserDTO {
	return dto.UserDTO{Login: login, Email: email, FirstName: "first", LangKey: "en"}
}

func strPtr(s string) *string { return &s }

func TestRegister_NormalizesAndStartsUnactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.service.Register(ctx, registration("JohnDoe", "John.Doe@Example.COM"), "secret")
	require.NoError(t, err)

	assert.Equal(t, "johndoe", user.Login)
	assert.Equal(t, "john.doe@example.com", user.Email)
	assert.False(t, user.Activated)
	require.NotNil(t, user.ActivationKey)
	assert.Len(t, *user.ActivationKey, 20)
	assert.Equal(t, []string{models.RoleUser}, user.AuthorityNames())
	assert.True(t, f.hasher.Verify(user.PasswordHash, "secret"))

	f.mailer.AssertCalled(t, "SendActivationEmail", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Login == "johndoe"
	}))
}

func TestRegister_IgnoresRequestedAuthorities(t *testing.T) {
	f := newFixture(t)
	req := registration("mallory", "mallory@x.com")
	req.Authorities = []string{models.RoleAdmin}

	user, err := f.service.Register(context.Background(), req, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, user.AuthorityNames())
}

func TestRegister_InUseByActivatedAccount(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true})

	_, err := f.service.Register(context.Background(), registration("ALICE", "other@x.com"), "secret")
	assert.ErrorIs(t, err, ErrLoginInUse)

	_, err = f.service.Register(context.Background(), registration("bob", "Alice@X.com"), "secret")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_ReplacesUnactivatedDuplicate(t *testing.T) {
	f := newFixture(t)
	old := f.repo.Put(models.User{Login: "alice", Email: "old@x.com", ActivationKey: strPtr("oldkey")})
	other := f.repo.Put(models.User{Login: "someone", Email: "alice@x.com"})

	user, err := f.service.Register(context.Background(), registration("alice", "alice@x.com"), "secret")
	require.NoError(t, err)

	_, ok := f.repo.Get(old.ID)
	assert.False(t, ok, "unactivated login holder removed")
	_, ok = f.repo.Get(other.ID)
	assert.False(t, ok, "unactivated email holder removed")
	_, ok = f.repo.Get(user.ID)
	assert.True(t, ok)
}

func TestRegister_StoreDuplicateMapsToInUse(t *testing.T) {
	f := newFixture(t)
	race := &racingRepo{MemUserRepo: f.repo}
	f.service.repo = race

	_, err := f.service.Register(context.Background(), registration("alice", "alice@x.com"), "secret")
	assert.ErrorIs(t, err, ErrLoginInUse)
}

// racingRepo inserts a competing activated "alice" between the pre-check
// and the insert.
type racingRepo struct {
	*repotest.MemUserRepo
}

func (r *racingRepo) Create(ctx context.Context, u *models.User) error {
	r.Put(models.User{Login: "alice", Email: "first@x.com", Activated: true})
	return r.MemUserRepo.Create(ctx, u)
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	failing := &MockMailer{}
	failing.On("SendActivationEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	f.service.mailer = failing

	user, err := f.service.Register(context.Background(), registration("alice", "alice@x.com"), "secret")
	require.NoError(t, err)
	_, ok := f.repo.Get(user.ID)
	assert.True(t, ok)
	failing.AssertExpectations(t)
}

func TestActivate_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	user, err := f.service.Register(context.Background(), registration("alice", "alice@x.com"), "secret")
	require.NoError(t, err)
	key := *user.ActivationKey

	_, err = f.service.Activate(context.Background(), "wrong-key")
	assert.ErrorIs(t, err, ErrUserNotFound)

	activated, err := f.service.Activate(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, activated.Activated)
	assert.Nil(t, activated.ActivationKey)

	_, err = f.service.Activate(context.Background(), key)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true})
	f.repo.Put(models.User{Login: "pending", Email: "pending@x.com", ActivationKey: strPtr("k")})

	t.Run("activated account gets a key", func(t *testing.T) {
		user, err := f.service.RequestPasswordReset(context.Background(), "ALICE@x.com")
		require.NoError(t, err)
		require.NotNil(t, user.ResetKey)
		require.NotNil(t, user.ResetDate)
		assert.Equal(t, f.now, *user.ResetDate)
		f.mailer.AssertCalled(t, "SendPasswordResetMail", mock.Anything, mock.Anything)
	})

	t.Run("unactivated account is refused", func(t *testing.T) {
		_, err := f.service.RequestPasswordReset(context.Background(), "pending@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.service.RequestPasswordReset(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestCompletePasswordReset_Window(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr bool
	}{
		{"just requested", 0, false},
		{"23h59m later", 23*time.Hour + 59*time.Minute, false},
		{"exactly 24h later", 24 * time.Hour, true},
		{"24h and 1s later", 24*time.Hour + time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			hash, _ := f.hasher.Hash("old")
			requested := f.now
			u := f.repo.Put(models.User{
				Login: "alice", Email: "alice@x.com", Activated: true, PasswordHash: hash,
				ResetKey: strPtr("reset"), ResetDate: &requested,
			})
			f.now = requested.Add(tt.elapsed)

			_, err := f.service.CompletePasswordReset(context.Background(), "new-password", "reset")
			stored, _ := f.repo.Get(u.ID)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrResetKeyExpired)
				assert.ErrorIs(t, err, ErrUserNotFound)
				assert.True(t, f.hasher.Verify(stored.PasswordHash, "old"))
				return
			}
			require.NoError(t, err)
			assert.True(t, f.hasher.Verify(stored.PasswordHash, "new-password"))
			assert.Nil(t, stored.ResetKey)
			assert.Nil(t, stored.ResetDate)
		})
	}
}

func TestCompletePasswordReset_UnknownKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CompletePasswordReset(context.Background(), "new-password", "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrResetKeyExpired)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	hash, _ := f.hasher.Hash("current")
	u := f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true, PasswordHash: hash})

	t.Run("not authenticated", func(t *testing.T) {
		err := f.service.ChangePassword(context.Background(), "current", "next")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("wrong password leaves hash untouched", func(t *testing.T) {
		err := f.service.ChangePassword(f.as("alice"), "wrong", "next")
		assert.ErrorIs(t, err, ErrWrongPassword)
		stored, _ := f.repo.Get(u.ID)
		assert.Equal(t, hash, stored.PasswordHash)
	})

	t.Run("changes password", func(t *testing.T) {
		require.NoError(t, f.service.ChangePassword(f.as("alice"), "current", "next"))
		stored, _ := f.repo.Get(u.ID)
		assert.True(t, f.hasher.Verify(stored.PasswordHash, "next"))
		assert.Equal(t, "alice", stored.LastModifiedBy)
	})
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	u := f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true})
	f.repo.Put(models.User{Login: "bob", Email: "bob@x.com", Activated: true})

	updated, err := f.service.UpdateProfile(f.as("alice"), "Alice", "Liddell", "Alice@Wonder.land", "fr", "http://img")
	require.NoError(t, err)
	assert.Equal(t, "alice@wonder.land", updated.Email)

	stored, _ := f.repo.Get(u.ID)
	assert.Equal(t, "Alice", stored.FirstName)
	assert.Equal(t, "fr", stored.LangKey)

	_, err = f.service.UpdateProfile(f.as("alice"), "", "", "bob@x.com", "en", "")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestCacheEvictedOnMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gate := security.NewGate(f.repo, f.caches)

	user, err := f.service.Register(ctx, registration("alice", "alice@x.com"), "secret")
	require.NoError(t, err)
	_, err = f.service.Activate(ctx, *user.ActivationKey)
	require.NoError(t, err)

	// warm both caches
	_, err = gate.Resolve(ctx, "alice")
	require.NoError(t, err)
	_, err = gate.Resolve(ctx, "alice@x.com")
	require.NoError(t, err)

	_, err = f.service.UpdateProfile(f.as("alice"), "A", "L", "new@x.com", "en", "")
	require.NoError(t, err)

	byLogin, err := gate.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", byLogin.Email)

	_, err = gate.Resolve(ctx, "alice@x.com")
	assert.ErrorIs(t, err, security.ErrUserNotFound)

	require.NoError(t, f.service.DeleteUser(ctx, "alice"))
	_, err = gate.Resolve(ctx, "alice")
	assert.ErrorIs(t, err, security.ErrUserNotFound)
	_, err = gate.Resolve(ctx, "new@x.com")
	assert.ErrorIs(t, err, security.ErrUserNotFound)
}

func TestPurgeStaleUnactivated(t *testing.T) {
	f := newFixture(t)
	day := 24 * time.Hour
	stale := f.repo.Put(models.User{Login: "stale", Email: "stale@x.com", CreatedAt: f.now.Add(-4 * day)})
	fresh := f.repo.Put(models.User{Login: "fresh", Email: "fresh@x.com", CreatedAt: f.now.Add(-1 * day)})
	old := f.repo.Put(models.User{Login: "old", Email: "old@x.com", Activated: true, CreatedAt: f.now.Add(-400 * day)})

	removed, err := f.service.PurgeStaleUnactivated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := f.repo.Get(stale.ID)
	assert.False(t, ok)
	_, ok = f.repo.Get(fresh.ID)
	assert.True(t, ok)
	_, ok = f.repo.Get(old.ID)
	assert.True(t, ok)

	removed, err = f.service.PurgeStaleUnactivated(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	req := dto.UserDTO{
		Login:       "Admin2",
		Email:       "Admin2@x.com",
		Authorities: []string{models.RoleAdmin, models.RoleUser, "ROLE_UNKNOWN"},
	}

	user, err := f.service.CreateUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "admin2", user.Login)
	assert.True(t, user.Activated)
	assert.Equal(t, models.DefaultLanguage, user.LangKey)
	require.NotNil(t, user.ResetKey)
	require.NotNil(t, user.ResetDate)
	assert.ElementsMatch(t, []string{models.RoleAdmin, models.RoleUser}, user.AuthorityNames())
	f.mailer.AssertCalled(t, "SendCreationEmail", mock.Anything, mock.Anything)

	_, err = f.service.CreateUser(context.Background(), dto.UserDTO{Login: "admin2", Email: "z@x.com"})
	assert.ErrorIs(t, err, ErrLoginInUse)
	_, err = f.service.CreateUser(context.Background(), dto.UserDTO{Login: "z", Email: "ADMIN2@x.com"})
	assert.ErrorIs(t, err, ErrEmailInUse)

	id := int64(5)
	_, err = f.service.CreateUser(context.Background(), dto.UserDTO{ID: &id, Login: "z", Email: "z@x.com"})
	assert.ErrorIs(t, err, ErrIDExists)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	alice := f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true,
		Authorities: []models.Authority{{Name: models.RoleUser}}})
	f.repo.Put(models.User{Login: "bob", Email: "bob@x.com", Activated: true})

	req := dto.NewUserDTO(&alice)
	req.Email = "bob@x.com"
	_, err := f.service.UpdateUser(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailInUse)

	req = dto.NewUserDTO(&alice)
	req.Login = "BOB"
	_, err = f.service.UpdateUser(context.Background(), req)
	assert.ErrorIs(t, err, ErrLoginInUse)

	req = dto.NewUserDTO(&alice)
	req.Login = "alicia"
	req.Authorities = []string{models.RoleAdmin}
	req.Activated = false
	updated, err := f.service.UpdateUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Login)
	assert.False(t, updated.Activated)
	assert.Equal(t, []string{models.RoleAdmin}, updated.AuthorityNames())
	require.NotNil(t, updated.ActivationKey)
	assert.Len(t, *updated.ActivationKey, 20)

	missing := int64(999)
	req.ID = &missing
	req.Login, req.Email = "ghost", "ghost@x.com"
	_, err = f.service.UpdateUser(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_ActivationKeyFollowsFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	key := "pendingkey"
	carol := f.repo.Put(models.User{Login: "carol", Email: "carol@x.com", ActivationKey: &key})

	req := dto.NewUserDTO(&carol)
	req.Activated = true
	_, err := f.service.UpdateUser(ctx, req)
	require.NoError(t, err)

	stored, ok := f.repo.Get(carol.ID)
	require.True(t, ok)
	assert.True(t, stored.Activated)
	assert.Nil(t, stored.ActivationKey)
	_, err = f.service.Activate(ctx, key)
	assert.ErrorIs(t, err, ErrUserNotFound)

	req.Activated = false
	_, err = f.service.UpdateUser(ctx, req)
	require.NoError(t, err)

	stored, _ = f.repo.Get(carol.ID)
	assert.False(t, stored.Activated)
	require.NotNil(t, stored.ActivationKey)
	activated, err := f.service.Activate(ctx, *stored.ActivationKey)
	require.NoError(t, err)
	assert.True(t, activated.Activated)
}

func TestListUsers_ExcludesAnonymous(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(models.User{Login: models.AnonymousAccount, Email: "anonymous@localhost", Activated: true})
	f.repo.Put(models.User{Login: "alice", Email: "alice@x.com", Activated: true})

	users, total, err := f.service.ListUsers(context.Background(), pageOf(0, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Login)

	names, err := f.service.Authorities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleUser}, names)
}

func TestDeleteUser_UnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.service.DeleteUser(context.Background(), "ghost"))
}
