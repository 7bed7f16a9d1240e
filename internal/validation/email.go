package validation

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailRequired = errors.New("email address is required")
	ErrEmailTooLong  = errors.New("email address is too long")
	ErrEmailInvalid  = errors.New("invalid email address format")
)

// Recipient checks a share recipient and returns the bare address, so
// "Grace <grace@example.com>" becomes "grace@example.com".
func Recipient(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmailRequired
	}
	// RFC 5321 caps a path at 254 characters
	if len(s) > 254 {
		return "", ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", ErrEmailInvalid
	}
	return addr.Address, nil
}
