package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch is returned when a secret does not match its hash
	ErrMismatch = errors.New("secret mismatch")

	// ErrTooLong is returned for secrets longer than MaxSecretLength bytes
	ErrTooLong = errors.New("secret too long")
)

// MaxSecretLength is the longest secret bcrypt accepts
const MaxSecretLength = 72

// HashSecret hashes a client secret using bcrypt
func HashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// CheckSecret checks if a secret matches its hash in constant time
func CheckSecret(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}
