package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

var otpCodeSpace = big.NewInt(1000000)

// GenerateOTPCode returns a 6-digit numeric code, uniform over
// 000000–999999.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpCodeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateResetToken returns a random token with n bytes of entropy,
// base64url encoded.
func GenerateResetToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
