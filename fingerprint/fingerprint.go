// Package fingerprint derives the content identity used for cache keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length in characters of a fingerprint.
const Size = sha256.Size * 2

// Of returns the lowercase hex SHA-256 digest of text. The bytes are hashed
// exactly as given: whitespace and formatting changes produce a new digest.
func Of(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
