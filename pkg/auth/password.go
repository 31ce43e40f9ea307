package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mahadigital/schooldesk/internal/models"
)

const (
	BcryptCost = 12

	// MinPasswordLen is the policy floor for permanent passwords.
	MinPasswordLen = 6

	// TempPasswordLen is the fixed length of generated temporary passwords.
	TempPasswordLen = 8
)

// tempPasswordCharset is the mixed alphanumeric+symbol alphabet temporary
// passwords are drawn from.
const tempPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_+=?"

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateTempPassword returns a random password of the given length drawn
// uniformly from the temp charset, using crypto/rand.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = TempPasswordLen
	}

	out := make([]byte, length)
	max := 256 - (256 % len(tempPasswordCharset))

	for i := 0; i < length; {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		// Rejection sampling keeps the draw uniform over the charset.
		if int(b[0]) >= max {
			continue
		}
		out[i] = tempPasswordCharset[int(b[0])%len(tempPasswordCharset)]
		i++
	}

	return string(out), nil
}

// ValidateNewPassword enforces the minimum-length policy for a replacement
// permanent password.
func ValidateNewPassword(password string) error {
	if len(password) < MinPasswordLen {
		return models.ErrWeakPassword
	}
	return nil
}
