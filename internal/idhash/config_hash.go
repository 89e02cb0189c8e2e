package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeConfigHash computes a deterministic hash of a model document.
// Formula: SHA256(document bytes)
// Returns hex-encoded hash (64 characters).
func ComputeConfigHash(document []byte) string {
	hash := sha256.Sum256(document)
	return hex.EncodeToString(hash[:])
}
