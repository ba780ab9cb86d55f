package services

import (
	"fmt"
	"unicode/utf8"
)

// PasswordPolicy bounds the length of a clear-text password, counted in runes.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// Check returns ErrInvalidPassword when password is empty or out of bounds.
func (p PasswordPolicy) Check(password string) error {
	n := utf8.RuneCountInString(password)
	if password == "" || n < p.MinLength || n > p.MaxLength {
		return fmt.Errorf("password of %d characters, want %d..%d: %w", n, p.MinLength, p.MaxLength, ErrInvalidPassword)
	}
	return nil
}
