// internal/app/system/apikey/apikey.go

// Package apikey generates and verifies the opaque bearer credentials issued
// one per user.
//
// Keys are random and carry no structure; only their SHA3-256 digest is
// stored. The digest is deterministic on purpose: lookup-by-key and
// re-hash-and-compare verification both depend on it (a salted scheme like
// bcrypt cannot back either).
package apikey

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// KeyBytes is the entropy of a generated key; hex-encoding doubles it on the
// wire (48 characters).
const KeyBytes = 24

// Generate returns a new raw API key.
func Generate() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("apikey: read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex SHA3-256 digest of key. Same input, same output.
func Hash(key string) string {
	sum := sha3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether candidate hashes to storedHash. The comparison is
// constant-time over the digests; malformed input yields false, never an
// error. Hashing the candidate first also makes the two buffers equal-length,
// which subtle.ConstantTimeCompare requires.
func Verify(candidate, storedHash string) bool {
	if candidate == "" || storedHash == "" {
		return false
	}
	sum := []byte(Hash(candidate))
	if len(sum) != len(storedHash) {
		return false
	}
	return subtle.ConstantTimeCompare(sum, []byte(storedHash)) == 1
}
