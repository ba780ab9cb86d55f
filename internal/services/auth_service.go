package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/security"
)

const (
	AuthenticationSuccess = "AUTHENTICATION_SUCCESS"
	AuthenticationFailure = "AUTHENTICATION_FAILURE"
	AuthorizationFailure  = "AUTHORIZATION_FAILURE"
)

// AuthService checks credentials and issues tokens.
type AuthService struct {
	gate   *security.Gate
	hasher security.PasswordHasher
	tokens *security.TokenService
	audit  *AuditService
}

func NewAuthService(gate *security.Gate, hasher security.PasswordHasher, tokens *security.TokenService, audit *AuditService) *AuthService {
	return &AuthService{gate: gate, hasher: hasher, tokens: tokens, audit: audit}
}

// Login returns a signed token. Unknown, unactivated and wrong-password
// attempts all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, remoteAddr string) (string, error) {
	log := logging.For("security")

	user, err := s.gate.Resolve(ctx, req.Username)
	if err != nil {
		reason := "bad credentials"
		switch {
		case errors.Is(err, security.ErrUserNotActivated):
			reason = "user not activated"
		case !errors.Is(err, security.ErrUserNotFound):
			log.Error("authentication lookup failed", "error", err)
			reason = "lookup failed"
		}
		s.recordFailure(ctx, req.Username, remoteAddr, reason)
		return "", fmt.Errorf("%w: %s", ErrInvalidCredentials, reason)
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.recordFailure(ctx, req.Username, remoteAddr, "bad credentials")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Login, user.AuthorityNames(), req.RememberMe)
	if err != nil {
		return "", err
	}
	s.record(ctx, user.Login, AuthenticationSuccess, map[string]string{"remoteAddress": remoteAddr})
	return token, nil
}

func (s *AuthService) recordFailure(ctx context.Context, principal, remoteAddr, reason string) {
	s.record(ctx, principal, AuthenticationFailure, map[string]string{
		"remoteAddress": remoteAddr,
		"message":       reason,
	})
}

func (s *AuthService) record(ctx context.Context, principal, eventType string, data map[string]string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Add(ctx, principal, eventType, data); err != nil {
		logging.For("audit").Error("failed to store audit event", "type", eventType, "error", err)
	}
}
