package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters for deriving the storage key from the configured
// passphrase. Derivation runs once per process.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4

	sealedPrefix = "v1."
)

var (
	ErrEmptySecret = errors.New("cryptox: sealing secret must not be empty")
	ErrSealed      = errors.New("cryptox: sealed value is malformed or was tampered with")
)

// Sealer encrypts values stored at rest with XChaCha20-Poly1305 under a key
// derived from a passphrase with Argon2id.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from secret and salt.
func NewSealer(secret, salt []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key := argon2.IDKey(secret, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext, binding it to ad (the storage key it is written
// under) so a sealed value cannot be moved to another key.
// Output format: "v1." + base64url([24-byte nonce][ciphertext+tag]).
func (s *Sealer) Seal(plaintext, ad []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, plaintext, ad)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Any malformed or tampered input yields ErrSealed.
func (s *Sealer) Open(sealed string, ad []byte) ([]byte, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return nil, ErrSealed
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrSealed
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrSealed
	}
	return plaintext, nil
}
