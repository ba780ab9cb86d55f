package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skcgolf/skc-api/internal/config"
	"github.com/skcgolf/skc-api/internal/logging"
)

const AuthoritiesClaim = "auth"

// TokenService issues and verifies HS512 bearer tokens.
type TokenService struct {
	key                []byte
	validity           time.Duration
	validityRememberMe time.Duration
	now                func() time.Time
}

type tokenClaims struct {
	Auth string `json:"auth"`
	jwt.RegisteredClaims
}

// NewTokenService builds the service from config. A base64 secret takes
// precedence over a raw one.
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	log := logging.For("security")

	var key []byte
	switch {
	case cfg.JWTBase64Secret != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.JWTBase64Secret)
		if err != nil {
			return nil, fmt.Errorf("decode JWT_BASE64_SECRET: %w", err)
		}
		key = decoded
	case cfg.JWTSecret != "":
		log.Warn("using a non-base64 JWT secret, set JWT_BASE64_SECRET instead")
		key = []byte(cfg.JWTSecret)
	default:
		return nil, errors.New("JWT_SECRET or JWT_BASE64_SECRET is required")
	}

	if len(key) < 32 {
		return nil, errors.New("JWT signing key must be at least 256 bits")
	}
	if cfg.JWTTokenValidity <= 0 {
		return nil, errors.New("JWT_TOKEN_VALIDITY is required")
	}
	if cfg.JWTTokenValidityRememberMe <= 0 {
		return nil, errors.New("JWT_TOKEN_VALIDITY_REMEMBER_ME is required")
	}

	return &TokenService{
		key:                key,
		validity:           cfg.JWTTokenValidity,
		validityRememberMe: cfg.JWTTokenValidityRememberMe,
		now:                time.Now,
	}, nil
}

// Key returns the signing key for the route guard.
func (s *TokenService) Key() []byte {
	return s.key
}

// Issue signs a token for login carrying roles as a comma-joined claim.
func (s *TokenService) Issue(login string, roles []string, rememberMe bool) (string, error) {
	validity := s.validity
	if rememberMe {
		validity = s.validityRememberMe
	}
	now := s.now()

	claims := tokenClaims{
		Auth: strings.Join(roles, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies the token and returns its principal. Every failure
// is reported as ErrInvalidToken; the cause is only logged.
func (s *TokenService) Authenticate(token string) (*Principal, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	return &Principal{Login: claims.Subject, Authorities: splitAuthorities(claims.Auth)}, nil
}

// Validate reports whether the token verifies.
func (s *TokenService) Validate(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

func (s *TokenService) parse(token string) (*tokenClaims, error) {
	if strings.TrimSpace(token) == "" {
		logging.For("security").Info("invalid JWT token", "reason", "empty")
		return nil, ErrInvalidToken
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logging.For("security").Info("invalid JWT token", "reason", failureReason(err))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unsupported"
	default:
		return "illegal argument"
	}
}

func splitAuthorities(claim string) []string {
	var roles []string
	for _, r := range strings.Split(claim, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// PrincipalFromClaims builds the principal from claims already verified by
// the route guard. Tokens without a subject or expiry are rejected.
func PrincipalFromClaims(claims jwt.MapClaims) (*Principal, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	auth, _ := claims[AuthoritiesClaim].(string)
	return &Principal{Login: sub, Authorities: splitAuthorities(auth)}, nil
}
