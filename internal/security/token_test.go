package security

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skcgolf/skc-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 64)

func testConfig() *config.Config {
	return &config.Config{
		JWTBase64Secret:            base64.StdEncoding.EncodeToString([]byte(testSecret)),
		JWTTokenValidity:           time.Hour,
		JWTTokenValidityRememberMe: 30 * 24 * time.Hour,
	}
}

func TestNewTokenService(t *testing.T) {
	t.Run("base64 secret", func(t *testing.T) {
		s, err := NewTokenService(testConfig())
		require.NoError(t, err)
		assert.Equal(t, []byte(testSecret), s.Key())
	})

	t.Run("raw secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.JWTBase64Secret = ""
		cfg.JWTSecret = testSecret
		s, err := NewTokenService(cfg)
		require.NoError(t, err)
		assert.Equal(t, []byte(testSecret), s.Key())
	})

	for name, mutate := range map[string]func(*config.Config){
		"no secret":            func(c *config.Config) { c.JWTBase64Secret = "" },
		"short secret":         func(c *config.Config) { c.JWTBase64Secret = ""; c.JWTSecret = "short" },
		"bad base64":           func(c *config.Config) { c.JWTBase64Secret = "%%%" },
		"no validity":          func(c *config.Config) { c.JWTTokenValidity = 0 },
		"no remember validity": func(c *config.Config) { c.JWTTokenValidityRememberMe = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(cfg)
			_, err := NewTokenService(cfg)
			assert.Error(t, err)
		})
	}
}

func TestTokenService_IssueAndAuthenticate(t *testing.T) {
	s, err := NewTokenService(testConfig())
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, err := s.Issue("alice", []string{"ROLE_USER", "ROLE_ADMIN"}, false)
	require.NoError(t, err)

	p, err := s.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Login)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, p.Authorities)
	assert.True(t, s.Validate(token))

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS512", parsed.Header["alg"])
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "ROLE_USER,ROLE_ADMIN", claims["auth"])
	assert.Equal(t, "alice", claims["sub"])
}

func TestTokenService_Expiry(t *testing.T) {
	s, err := NewTokenService(testConfig())
	require.NoError(t, err)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := issued
	s.now = func() time.Time { return now }

	short, err := s.Issue("alice", nil, false)
	require.NoError(t, err)
	long, err := s.Issue("alice", nil, true)
	require.NoError(t, err)

	now = issued.Add(2 * time.Hour)
	assert.False(t, s.Validate(short))
	assert.True(t, s.Validate(long))

	_, err = s.Authenticate(short)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = issued.Add(31 * 24 * time.Hour)
	assert.False(t, s.Validate(long))
}

func TestTokenService_RejectsTampering(t *testing.T) {
	s, err := NewTokenService(testConfig())
	require.NoError(t, err)

	other := testConfig()
	other.JWTBase64Secret = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 64)))
	forger, err := NewTokenService(other)
	require.NoError(t, err)

	forged, err := forger.Issue("admin", []string{"ROLE_ADMIN"}, false)
	require.NoError(t, err)

	hs256 := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin", "auth": "ROLE_ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	})
	downgraded, err := hs256.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong key": forged,
		"wrong alg": downgraded,
		"malformed": "not.a.token",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Authenticate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.False(t, s.Validate(token))
		})
	}
}

func TestSplitAuthorities(t *testing.T) {
	assert.Nil(t, splitAuthorities(""))
	assert.Equal(t, []string{"A", "B"}, splitAuthorities("A, B,"))
}
