package store

import (
	"context"
	"errors"
	"fmt"
)

// Tokens reads and writes one token under a fixed key.
type Tokens struct {
	kv  KV
	key string
}

func NewTokens(kv KV, key string) *Tokens {
	return &Tokens{kv: kv, key: key}
}

// Key returns the storage key.
func (t *Tokens) Key() string { return t.key }

// Store overwrites the token. Storing "" clears it.
func (t *Tokens) Store(ctx context.Context, token string) error {
	if token == "" {
		return t.Clear(ctx)
	}
	if err := t.kv.Set(ctx, t.key, token); err != nil {
		return fmt.Errorf("store %s: %w", t.key, err)
	}
	return nil
}

// Load returns the token and whether one was stored.
func (t *Tokens) Load(ctx context.Context) (string, bool, error) {
	v, err := t.kv.Get(ctx, t.key)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("load %s: %w", t.key, err)
	case v == "":
		return "", false, nil
	}
	return v, true, nil
}

// Clear removes the token. Clearing an absent token is not an error.
func (t *Tokens) Clear(ctx context.Context) error {
	if err := t.kv.Delete(ctx, t.key); err != nil {
		return fmt.Errorf("clear %s: %w", t.key, err)
	}
	return nil
}
