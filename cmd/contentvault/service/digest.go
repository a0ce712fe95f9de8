package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DigestLength is the hex length of a content digest (SHA-256)
const DigestLength = 64

// ComputeDigest hashes content bytes to their address digest: 64
// lowercase hex chars. Empty input maps to the empty-string sentinel,
// which callers must treat as "no content", never as a valid address.
func ComputeDigest(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest recomputes the digest of content and compares it with the
// expected one. The full hash is always computed before comparing.
func VerifyDigest(content []byte, expected string) bool {
	actual := ComputeDigest(content)
	return actual == strings.ToLower(expected)
}

// IsValidDigest reports whether s has the exact digest length and
// alphabet (lowercase hex)
func IsValidDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
