// Package contenthash computes the content digests used to deduplicate
// uploaded images.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestLength is the length of an encoded digest in characters.
const DigestLength = 64

// Hash returns the lowercase hexadecimal SHA-256 digest of data. Equal
// inputs always produce equal digests, so the digest doubles as a
// deduplication key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether digest is a well-formed content hash: exactly
// DigestLength lowercase hexadecimal characters.
func Valid(digest string) bool {
	if len(digest) != DigestLength {
		return false
	}
	for i := 0; i < len(digest); i++ {
		c := digest[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Matches reports whether data hashes to digest.
func Matches(data []byte, digest string) bool {
	return Hash(data) == digest
}
