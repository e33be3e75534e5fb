package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey builds a namespaced key. The prefix names the value type
// (snapshot, artifact); the parts are hashed so device names and
// endpoint URLs never appear verbatim in filenames or backend keys.
func hashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the SHA-256 of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
