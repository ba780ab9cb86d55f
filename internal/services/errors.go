package services

import (
	"errors"
	"fmt"

	"github.com/skcgolf/skc-api/internal/repository"
)

var (
	ErrLoginInUse         = errors.New("login name already used")
	ErrEmailInUse         = errors.New("email is already in use")
	ErrInvalidPassword    = errors.New("incorrect password")
	ErrWrongPassword      = errors.New("current password does not match")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAuthenticated   = errors.New("current user login not found")
	ErrIDExists           = errors.New("a new user cannot already have an id")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAuditEventNotFound = errors.New("audit event not found")

	// ErrResetKeyExpired is reported to callers as ErrUserNotFound.
	ErrResetKeyExpired = fmt.Errorf("reset key expired: %w", ErrUserNotFound)
)

// mapDuplicate turns a store unique violation into the matching in-use error.
func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateLogin):
		return fmt.Errorf("%w: %v", ErrLoginInUse, err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return fmt.Errorf("%w: %v", ErrEmailInUse, err)
	}
	return err
}
