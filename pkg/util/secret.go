package util

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret turns a plaintext shared secret into a bcrypt hash, for storing
// the trigger secret outside the process environment.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), 8)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckSecretHash verifies a presented secret against a bcrypt hash.
func CheckSecretHash(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// CheckSecret compares two plaintext secrets in constant time.
func CheckSecret(presented, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
