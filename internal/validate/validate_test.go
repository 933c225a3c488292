package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"valid", "ana@umss.edu.bo", "ana@umss.edu.bo", nil},
		{"normalized", "  Ana.Perez@UMSS.edu.bo ", "ana.perez@umss.edu.bo", nil},
		{"plus tag", "ana+eventos@gmail.com", "ana+eventos@gmail.com", nil},
		{"empty", "", "", ErrEmpty},
		{"no at sign", "ana.umss.edu.bo", "", ErrInvalidEmail},
		{"no domain dot", "ana@localhost", "", ErrInvalidEmail},
		{"spaces inside", "ana perez@umss.edu.bo", "", ErrInvalidEmail},
		{"too long", strings.Repeat("a", 250) + "@x.com", "", ErrStringTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Email(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Email(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if _, err := String("", StringConstraints{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty string error = %v", err)
	}
	if got, err := String("  ok  ", StringConstraints{TrimSpace: true}); err != nil || got != "ok" {
		t.Errorf("trim = %q, %v", got, err)
	}
	if _, err := String("ab", StringConstraints{MinLength: 3}); !errors.Is(err, ErrStringTooShort) {
		t.Errorf("short error = %v", err)
	}
	if _, err := String("abcd", StringConstraints{MaxLength: 3}); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("long error = %v", err)
	}

	// Rune count, not bytes.
	if _, err := String("ñandú", StringConstraints{MaxLength: 5}); err != nil {
		t.Errorf("multibyte string rejected: %v", err)
	}
}

func TestEventTitle(t *testing.T) {
	got, err := EventTitle("Feria de <Ciencias>")
	if err != nil {
		t.Fatalf("EventTitle: %v", err)
	}
	if strings.Contains(got, "<") {
		t.Errorf("title not sanitized: %q", got)
	}

	if _, err := EventTitle("   "); err == nil {
		t.Error("blank title accepted")
	}
	if _, err := EventTitle(strings.Repeat("x", 201)); err == nil {
		t.Error("overlong title accepted")
	}
}

func TestPassword(t *testing.T) {
	if err := Password("secreto1"); err != nil {
		t.Errorf("8-char password rejected: %v", err)
	}
	if err := Password("corto"); err == nil {
		t.Error("short password accepted")
	}
	if err := Password(strings.Repeat("p", 73)); err == nil {
		t.Error("password over bcrypt limit accepted")
	}
}

func TestDescription(t *testing.T) {
	if got, err := Description(""); err != nil || got != "" {
		t.Errorf("empty description = %q, %v", got, err)
	}
	if _, err := Description(strings.Repeat("d", 5001)); err == nil {
		t.Error("overlong description accepted")
	}
}
