package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateLogin = errors.New("duplicate login")
	ErrDuplicateEmail = errors.New("duplicate email")
)

const (
	loginConstraint = "idx_users_login"
	emailConstraint = "idx_users_email"

	uniqueViolation = "23505"
)

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case loginConstraint:
			return ErrDuplicateLogin
		case emailConstraint:
			return ErrDuplicateEmail
		}
	}
	return err
}
