package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the SHA-256 of data as a lowercase hex string.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
