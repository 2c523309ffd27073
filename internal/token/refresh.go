package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const rawRefreshBytes = 48

// NewRefreshToken returns a fresh opaque refresh token, base64url-encoded.
func NewRefreshToken() (string, error) {
	buf := make([]byte, rawRefreshBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashRefreshToken computes the hex SHA-256 digest under which a raw refresh
// token is persisted. The raw value itself never touches the database.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
