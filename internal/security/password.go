package security

import (
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is a one-way hash with verification.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(hash, raw string) bool
}

type BCryptHasher struct {
	cost int
}

func NewBCryptHasher(cost int) *BCryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BCryptHasher{cost: cost}
}

func (h *BCryptHasher) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BCryptHasher) Verify(hash, raw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		logging.For("security").Warn("password hash could not be compared", "error", err)
	}
	return err == nil
}
