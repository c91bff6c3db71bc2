package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "correct-horse-battery", nil},
		{"exact minimum", "abcdefghij", nil},
		{"too short", "abc123xyz", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"multibyte counts runes", "ééééééééé", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"max length", strings.Repeat("a", 72), nil},
		{"common", "password123", ErrPasswordCommon},
		{"common any case", "QwertyUIOP", ErrPasswordCommon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePassword(tt.password); got != tt.want {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct-horse-battery" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("HashPassword() = %q, want a bcrypt hash", hash)
	}
	if !CheckPassword("correct-horse-battery", hash) {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword("wrong-horse-battery", hash) {
		t.Error("CheckPassword() accepted the wrong password")
	}
	if CheckPassword("", "") {
		t.Error("CheckPassword() accepted empty inputs")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, _ := HashPassword("correct-horse-battery")
	b, _ := HashPassword("correct-horse-battery")
	if a == b {
		t.Error("HashPassword() should salt each hash")
	}
}

func TestBurnCheck(t *testing.T) {
	BurnCheck("anything")
	BurnCheck("")
}

func TestPasswordRules(t *testing.T) {
	if !strings.Contains(PasswordRules(), "10") {
		t.Errorf("PasswordRules() = %q, want the minimum length", PasswordRules())
	}
}
