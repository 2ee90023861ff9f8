package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// AccessTokenBytes is the entropy of a published access token
const AccessTokenBytes = 32

// TokenGenerator produces opaque, unguessable access tokens
type TokenGenerator func() (string, error)

// NewAccessToken returns 256 random bits, base64url encoded without padding
func NewAccessToken() (string, error) {
	buf := make([]byte, AccessTokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
