package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the stable dedup hash of an (owner, content) pair.
// A null byte separates the two so "ab"+"c" and "a"+"bc" cannot collide.
func Fingerprint(ownerID, content string) string {
	h := sha256.New()
	h.Write([]byte(ownerID))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
