package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken returns size random bytes, base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// LogFingerprint is the form of a token that may appear in logs: the first
// 12 characters of its fingerprint, or "" for an empty token.
func LogFingerprint(token string) string {
	if token == "" {
		return ""
	}
	return FingerprintToken(token)[:12]
}
