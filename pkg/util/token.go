package util

import (
	"crypto/rand"
	"encoding/hex"
)

// ResetTokenBytes is the amount of randomness in a password reset token.
// Hex encoding doubles it, so tokens are 40 characters long.
const ResetTokenBytes = 20

// GenerateResetToken returns a hex-encoded token from crypto/rand
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
