package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Keys of the persisted session state.
const (
	KeyAuthToken = "auth_token"
	KeyTempToken = "temp_token"
)

// KV is durable key/value storage for the client session. Drivers (memory,
// file, sqlite) implement it. Values are replaced whole; there are no partial
// updates.
type KV interface {
	// Get returns ErrNotFound when key has no value.
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	// Delete is idempotent.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
