package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the most bcrypt reads of a password.
const maxPasswordBytes = 72

var (
	ErrInvalidCost = errors.New("password hashing cost is not configured")
	ErrInvalidHash = errors.New("invalid password hash")
)

// HashPassword hashes a password with bcrypt at the given cost.
// Costs above bcrypt.MaxCost are rejected; a non-positive cost means unconfigured.
// Only the first 72 bytes of the password are significant.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		return "", ErrInvalidCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d exceeds maximum %d", cost, bcrypt.MaxCost)
	}

	hash, err := bcrypt.GenerateFromPassword(truncate(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks whether a password matches the given bcrypt hash.
// A mismatch is (false, nil); a malformed hash is an error.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return false, ErrInvalidHash
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}

// truncate cuts a password to the bytes bcrypt uses, so long passwords hash
// and verify the same way instead of failing.
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
