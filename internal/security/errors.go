package security

import "errors"

var (
	ErrUserNotActivated = errors.New("user was not activated")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidToken     = errors.New("invalid token")
)
