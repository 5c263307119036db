package auth

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Username: alphanumeric, 2-15 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{2,15}$`)

// Email: a rough shape check only; the mail collaborator is the real judge.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Symbols accepted (and one required) in passwords.
const passwordSymbols = "!@#$%^&*()_+-=[]{};':\",.<>/?"

// ValidUsername reports whether the username matches the registration rules.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidEmail reports whether the address has a plausible mailbox@domain shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether the password is 10-20 characters long and
// contains at least one letter, one digit, and one symbol from the fixed set.
func ValidPassword(password string) bool {
	if len(password) < 10 || len(password) > 20 {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return letter && digit && symbol
}

// HashPassword returns a one-way bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
