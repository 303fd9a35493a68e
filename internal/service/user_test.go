package service

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"too short - 7 chars", "abcdef1", false},
		{"minimum - 8 chars", "abcdef12", true},
		{"longer - 12 chars", "abcdefgh1234", true},
		{"bcrypt limit - 72 chars", strings.Repeat("a", 72), true},
		{"over bcrypt limit - 73 chars", strings.Repeat("a", 73), false},
		{"empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if tc.valid && err != nil {
				t.Errorf("expected valid, got error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		valid bool
	}{
		{"simple", "user@example.com", true},
		{"subdomain", "user@mail.example.com", true},
		{"empty", "", false},
		{"no at", "userexample.com", false},
		{"two ats", "user@@example.com", false},
		{"no local part", "@example.com", false},
		{"no domain", "user@", false},
		{"domain without dot", "user@example", false},
		{"consecutive dots", "user..name@example.com", false},
		{"too long", strings.Repeat("a", 250) + "@b.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEmail(tc.email)
			if tc.valid && err != nil {
				t.Errorf("expected valid, got error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	second, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	if len(first) != 64 {
		t.Errorf("token length = %d, want 64", len(first))
	}
	if first == second {
		t.Error("tokens should be unique")
	}
}

func TestHashToken(t *testing.T) {
	hash := hashToken("some-token")

	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}
	if hash != hashToken("some-token") {
		t.Error("hash should be deterministic")
	}
	if hash == hashToken("other-token") {
		t.Error("different tokens should hash differently")
	}
}
