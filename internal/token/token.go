// Package token generates and hashes the opaque values used for magic
// links and sessions.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// 32 bytes gives 256 bits of entropy per token.
const valueBytes = 32

// New returns a fresh random token value as a 64-character hex string.
// The only failure mode is the entropy source itself being unavailable,
// which callers treat as fatal to the request.
func New() (string, error) {
	raw := make([]byte, valueBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Hash returns the SHA-256 hex digest under which a token value is stored.
// Persisting only the digest keeps a leaked table from yielding usable
// links or session credentials.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
