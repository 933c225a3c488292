package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail is returned for addresses the pattern rejects.
var ErrInvalidEmail = errors.New("invalid email format")

// emailPattern accepts the common address shapes. Anything it passes
// that is still undeliverable surfaces at the SMTP level, not here.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RFC 5321 length limits.
const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 255
)

// Email normalizes (trims, lowercases) and validates an address,
// returning the normalized form.
func Email(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmpty
	}
	if len(email) > maxEmailLength {
		return "", ErrStringTooLong
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "", ErrInvalidEmail
	}
	if len(local) > maxLocalLength || len(domain) > maxDomainLength {
		return "", ErrStringTooLong
	}
	if !strings.Contains(domain, ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}
