package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// VerificationTokenBytes is the entropy of email verification and reset tokens.
const VerificationTokenBytes = 32

// GenerateToken returns n random bytes hex-encoded.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
