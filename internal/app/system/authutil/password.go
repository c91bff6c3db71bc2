// Package authutil holds password rules and bcrypt hashing for admin sign-in.
package authutil

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 10
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 10 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 bytes.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

// commonPasswords are rejected regardless of length.
var commonPasswords = map[string]bool{
	"1234567890":    true,
	"0123456789":    true,
	"password123":   true,
	"password1234":  true,
	"qwertyuiop":    true,
	"iloveyou123":   true,
	"administrator": true,
	"changeme123":   true,
	"letmein1234":   true,
	"welcome123":    true,
	"stratasite":    true,
	"stratasite1":   true,
}

// PasswordRules describes the rules for display next to a password field.
func PasswordRules() string {
	return "Password must be 10 to 72 characters and cannot be a common password."
}

// ValidatePassword returns nil when password meets the rules.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password with bcrypt. Validate it first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// BurnCheck spends the same time as a real CheckPassword so a sign-in for an
// unknown login ID cannot be told apart by latency.
func BurnCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unused-dummy-password"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
