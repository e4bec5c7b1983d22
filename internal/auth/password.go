package auth

import (
	"errors"
	"fmt"

	"financas/internal/core"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost for stored passwords.
const HashCost = 10

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", core.NewValidationError("password", "is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns core.ErrUnauthorized when password does not match
// hash.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("wrong password: %w", core.ErrUnauthorized)
	}
	return fmt.Errorf("check password: %w", errors.Join(core.ErrUnauthorized, err))
}
