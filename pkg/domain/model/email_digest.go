package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmailDigest returns the Gravatar-style lower-case hex SHA-256 digest of an
// email address. The address is trimmed and lower-cased before hashing.
func EmailDigest(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// NormalizeDigest lower-cases a caller supplied digest so lookups are case-insensitive
func NormalizeDigest(digest string) string {
	return strings.ToLower(strings.TrimSpace(digest))
}
