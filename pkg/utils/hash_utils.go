package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyHasher builds stable identifiers for cache keys and log masking.
type KeyHasher struct{}

// NewKeyHasher creates a new hasher instance
func NewKeyHasher() *KeyHasher {
	return &KeyHasher{}
}

// Hash returns the hex SHA-256 of the parts joined with a unit separator,
// so ("ab","c") and ("a","bc") never collide.
func (h *KeyHasher) Hash(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 hex characters of Hash.
func (h *KeyHasher) ShortHash(parts ...string) string {
	full := h.Hash(parts...)
	if len(full) >= 8 {
		return full[:8]
	}
	return full
}

var globalHasher = NewKeyHasher()

// Hash is a convenience function that uses the global hasher
func Hash(parts ...string) string {
	return globalHasher.Hash(parts...)
}

// ShortHash is a convenience function that uses the global hasher
func ShortHash(parts ...string) string {
	return globalHasher.ShortHash(parts...)
}
