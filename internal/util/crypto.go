package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// ShortID returns a short random suffix for synthesized identifiers.
func ShortID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(bytes)
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
