package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const oneTimeTokenBytes = 24

// NewOneTimeToken returns a random token for mailing and the digest to persist.
func NewOneTimeToken() (token string, digest string, err error) {
	buf := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashOneTimeToken(token), nil
}

// HashOneTimeToken digests a presented token for lookup.
func HashOneTimeToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
