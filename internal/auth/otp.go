package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateOTPCode produces a numeric one-time code of the given length.
func GenerateOTPCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// HashOTPCode returns the stored form of a code. Codes are short-lived
// single-use values, so a plain digest is sufficient.
func HashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyOTPCode compares a submitted code against a stored hash in constant
// time.
func VerifyOTPCode(storedHash, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashOTPCode(submitted))) == 1
}
