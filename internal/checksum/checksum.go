// Package checksum computes content digests used for change detection and
// optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to want. An empty want always matches.
func Matches(data []byte, want string) bool {
	return want == "" || Sum(data) == want
}

// ETag quotes sum for use in an ETag header.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag extracts the digest from an If-Match or ETag header value,
// accepting quoted, weak and bare forms. "*" yields "".
func FromETag(header string) string {
	v := strings.TrimSpace(header)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	if v == "*" {
		return ""
	}
	return v
}
