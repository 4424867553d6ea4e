// Package memory is an in-process KV. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
)

type Store struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ store.KV = (*Store)(nil)

func NewStore() *Store {
	return &Store{m: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
