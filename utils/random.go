package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewOrderID returns a fresh identifier for a reservation transaction.
func NewOrderID() string {
	return uuid.NewString()
}

// GenerateCode returns n random bytes as an uppercase hex string, used for
// admin session tokens.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
