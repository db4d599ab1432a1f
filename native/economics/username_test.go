package economics

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "ab_1", true},
		{"explicit pad", "ab_1" + strings.Repeat("\x00", 11), true},
		{"full width", "abcdefghijklmno", true},
		{"digits and underscore", "user_42", true},
		{"too short", "ab1", false},
		{"empty", "", false},
		{"embedded gap", "ab\x00cd", false},
		{"uppercase", "AB12", false},
		{"illegal byte", "ab-cd", false},
		{"too long", "abcdefghijklmnop", false},
		{"all pad", "\x00\x00\x00\x00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUsername(tc.input)
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidUsername) {
				t.Fatalf("expected ErrInvalidUsername, got %v", err)
			}
		})
	}
}

func TestCanonicalUsername(t *testing.T) {
	if got := CanonicalUsername("ab_1\x00\x00"); got != "ab_1" {
		t.Fatalf("canonical = %q", got)
	}
	if got := CanonicalUsername("abcd"); got != "abcd" {
		t.Fatalf("canonical = %q", got)
	}
}
