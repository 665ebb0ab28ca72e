package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes password with bcrypt at the given cost. Each call
// uses a fresh random salt.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}
