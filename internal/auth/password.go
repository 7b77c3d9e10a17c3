package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	svcErr "github.com/oggyb/approach/internal/errors"
)

const MinPasswordLength = 8

// ValidatePassword enforces the sign-up password policy: at least eight
// characters with an upper-case letter, a lower-case letter and a digit,
// and a matching confirmation.
func ValidatePassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return svcErr.Invalid("password", "must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return svcErr.Invalid("password", "must contain an upper-case letter, a lower-case letter and a digit")
	}
	if password != confirm {
		return svcErr.Invalid("confirm_password", "does not match")
	}
	return nil
}

// NormalizeEmail lower-cases and trims so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
