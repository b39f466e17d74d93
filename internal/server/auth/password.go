package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a hash produced by HashPassword.
// A mismatch is reported as common.ErrorUnauthorized.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrorUnauthorized
	}
	return fmt.Errorf("error comparing password: %w", err)
}
