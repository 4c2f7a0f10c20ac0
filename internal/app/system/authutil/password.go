// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt refuses input longer than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Cost is the bcrypt work factor used by HashPassword. Tests lower it to
// bcrypt.MinCost.
var Cost = 12

var (
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

var commonPasswords = map[string]bool{
	"123456":    true,
	"1234567":   true,
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"password1": true,
	"qwerty":    true,
	"qwerty123": true,
	"abc123":    true,
	"111111":    true,
	"000000":    true,
	"123123":    true,
	"654321":    true,
	"iloveyou":  true,
	"letmein":   true,
	"welcome":   true,
	"sunshine":  true,
	"football":  true,
	"starwars":  true,
	"batman":    true,
	"superman":  true,
	"matrix":    true,
	"movies":    true,
}

// PasswordRules describes the rules enforced by ValidatePassword.
func PasswordRules() string {
	return "Password must be 6 to 72 characters and cannot be a common password like \"123456\" or \"password\"."
}

// ValidatePassword checks a new password against the length limits and the
// common-password list (case-insensitive).
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	case commonPasswords[strings.ToLower(password)]:
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a validated password with bcrypt at Cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
