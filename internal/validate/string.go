// Package validate provides centralized input validation and
// sanitization for the events API.
package validate

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort = errors.New("string is too short")
	ErrStringTooLong  = errors.New("string is too long")
	ErrEmpty          = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength  int  // Minimum length (0 = no minimum)
	MaxLength  int  // Maximum length (0 = no maximum)
	AllowEmpty bool // Whether empty strings are allowed
	TrimSpace  bool // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error
// if validation fails. Lengths count characters, not bytes.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	return s, nil
}

// SanitizeHTML escapes HTML special characters. Called on user text
// that ends up rendered by the UI.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString performs both validation and HTML sanitization.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// EventTitle validates an event title: 1-200 characters.
func EventTitle(title string) (string, error) {
	return SanitizeString(title, StringConstraints{
		MinLength: 1,
		MaxLength: 200,
		TrimSpace: true,
	})
}

// Nombre validates a user display name: 1-100 characters.
func Nombre(nombre string) (string, error) {
	return SanitizeString(nombre, StringConstraints{
		MinLength: 1,
		MaxLength: 100,
		TrimSpace: true,
	})
}

// Password validates a raw password before hashing: 8-72 characters.
// The upper bound is the bcrypt input limit.
func Password(password string) error {
	_, err := String(password, StringConstraints{
		MinLength: 8,
		MaxLength: 72,
	})
	return err
}

// Description validates a description field: optional, max 5000
// characters.
func Description(desc string) (string, error) {
	return SanitizeString(desc, StringConstraints{
		MaxLength:  5000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}
