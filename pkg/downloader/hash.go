package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CacheKey generates a 12-character SHA256 hash from
// the given values. Order matters.
// It should not be used for cryptographic operations.
func CacheKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])[:12]
}
