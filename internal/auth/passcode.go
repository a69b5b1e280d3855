package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPasscode = errors.New("invalid session passcode")
	ErrWeakPasscode    = errors.New("passcode must be at least 4 characters")
)

// MinPasscodeLength is the shortest passcode accepted for a session.
const MinPasscodeLength = 4

// HashPasscode validates and hashes a session passcode.
// An empty passcode yields an empty hash: the session is open to anyone with its ID.
func HashPasscode(passcode string) (string, error) {
	if passcode == "" {
		return "", nil
	}
	if len(passcode) < MinPasscodeLength {
		return "", ErrWeakPasscode
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(hashed), nil
}

// CheckPasscode verifies passcode against a hash from HashPasscode.
func CheckPasscode(hash, passcode string) error {
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)); err != nil {
		return ErrInvalidPasscode
	}
	return nil
}
