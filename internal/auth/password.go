package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password HashPassword accepts
const MinPasswordLength = 8

// ErrPasswordTooShort is returned when a password is below MinPasswordLength
var ErrPasswordTooShort = errors.New("password too short")

// dummyHash is compared against when the user does not exist, so that
// unknown usernames cost the same bcrypt round as wrong passwords
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// HashPassword hashes a plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	if len(plain) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with a plain text password
func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// CompareDummy burns one bcrypt comparison and always fails
func CompareDummy(plain string) error {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
	return bcrypt.ErrMismatchedHashAndPassword
}
