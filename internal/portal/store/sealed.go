package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dentaldesk/pkg/cryptox"
)

// saltKey holds the key-derivation salt in the clear next to the sealed values.
const saltKey = "_salt"

// ErrReservedKey is returned when a caller tries to use saltKey.
var ErrReservedKey = errors.New("store: reserved key")

// Sealed wraps a KV so values are encrypted at rest. Each value is bound to
// its key, so a sealed value copied under another key fails to open.
type Sealed struct {
	KV
	sealer *cryptox.Sealer
}

// NewSealed derives the sealing key from secret and the salt stored in kv,
// generating the salt on first use.
func NewSealed(ctx context.Context, kv KV, secret []byte) (*Sealed, error) {
	salt, err := kv.Get(ctx, saltKey)
	if errors.Is(err, ErrNotFound) {
		salt, err = cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		if err := kv.Set(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}

	sealer, err := cryptox.NewSealer(secret, []byte(salt))
	if err != nil {
		return nil, err
	}
	return &Sealed{KV: kv, sealer: sealer}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	if key == saltKey {
		return "", ErrReservedKey
	}
	v, err := s.KV.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := s.sealer.Open(v, []byte(key))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	return string(plain), nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	if key == saltKey {
		return ErrReservedKey
	}
	sealed, err := s.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.KV.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	if key == saltKey {
		return ErrReservedKey
	}
	return s.KV.Delete(ctx, key)
}
