package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ArtifactKey returns the cache key of dot rendered as format. Options that
// change the output, such as a PNG scale, go in opts.
func ArtifactKey(format, dot string, opts ...any) string {
	return fmt.Sprintf("artifact:%s:%s", format, Hash(fmt.Appendf([]byte(dot), "%v", opts)))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
