package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a bearer token; the plain value is its hex
// encoding (64 characters).
const tokenBytes = 32

// NewToken generates an opaque bearer token from crypto/rand. It returns the
// plain value, handed to the client exactly once, and the SHA-256 digest that
// is persisted in its place.
func NewToken() (plain, digest string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}

	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a plain token value.
// Lookups always go through the digest so a database leak does not expose
// usable tokens.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
