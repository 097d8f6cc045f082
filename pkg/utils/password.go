package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"unicode"

	appErrors "lab-checkout/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidatePassword returns an error wrapping ErrWeakPassword when the password
// is shorter than MinPasswordLength or lacks a letter or a digit.
func ValidatePassword(password string) error {
	var hasLetter, hasNumber bool

	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if len(password) < MinPasswordLength || !hasLetter || !hasNumber {
		return fmt.Errorf("%w: use at least %d characters including a letter and a number",
			appErrors.ErrWeakPassword, MinPasswordLength)
	}

	return nil
}

// GenerateSecureToken returns n random bytes hex encoded.
func GenerateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
