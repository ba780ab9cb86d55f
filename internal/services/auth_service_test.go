package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/models"
	"github.com/skcgolf/skc-api/internal/repository/repotest"
	"github.com/skcgolf/skc-api/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T) *security.TokenService {
	t.Helper()
	tokens, err := security.NewTokenService(&config.Config{
		JWTSecret:                  strings.Repeat("s", 64),
		JWTTokenValidity:           time.Hour,
		JWTTokenValidityRememberMe: 24 * time.Hour,
	})
	require.NoError(t, err)
	return tokens
}

func TestAliceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tokens := newTokenService(t)
	audits := &repotest.MemAuditRepo{}
	auth := NewAuthService(security.NewGate(f.repo, f.caches), f.hasher, tokens, NewAuditService(audits))

	user, err := f.service.Register(ctx, registration("alice", "alice@x.com"), "Secret123")
	require.NoError(t, err)

	_, err = auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "Secret123"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unactivated account cannot log in")

	_, err = f.service.Activate(ctx, "wrongKey")
	assert.ErrorIs(t, err, ErrUserNotFound)

	activated, err := f.service.Activate(ctx, *user.ActivationKey)
	require.NoError(t, err)
	assert.True(t, activated.Activated)

	token, err := auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "Secret123"}, "127.0.0.1")
	require.NoError(t, err)
	principal, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Login)
	assert.Equal(t, []string{models.RoleUser}, principal.Authorities)

	token, err = auth.Login(ctx, &dto.LoginRequest{Username: "ALICE", Password: "Secret123"}, "127.0.0.1")
	require.NoError(t, err)
	principal, err = tokens.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Login)

	token, err = auth.Login(ctx, &dto.LoginRequest{Username: "Alice@X.com", Password: "Secret123"}, "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, tokens.Validate(token))

	_, err = auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "x"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	successes, _ := audits.Find(ctx, "alice", time.Time{}, AuthenticationSuccess)
	assert.Len(t, successes, 3)
	failures, _ := audits.Find(ctx, "", time.Time{}, AuthenticationFailure)
	require.Len(t, failures, 3)

	var data map[string]string
	require.NoError(t, json.Unmarshal(failures[0].Data, &data))
	assert.Equal(t, "user not activated", data["message"])
	assert.Equal(t, "127.0.0.1", data["remoteAddress"])
}
