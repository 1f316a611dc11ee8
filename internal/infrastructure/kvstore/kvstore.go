// Package kvstore holds short lived records, such as authorization codes and
// pending consent transactions, in a TTL bounded key/value backend.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Backend is the raw byte store behind a Store. Missing or expired keys are
// reported as domain.ErrNotFound. GetDel must be atomic.
type Backend interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetDel(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// Store is a typed, prefixed view over a Backend
type Store[T any] struct {
	backend Backend
	prefix  string
	ttl     time.Duration
}

// New creates a store whose keys live under prefix and expire after ttl.
// A zero ttl keeps entries until they are taken or deleted.
func New[T any](backend Backend, prefix string, ttl time.Duration) *Store[T] {
	return &Store[T]{
		backend: backend,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Put stores val under key, replacing any previous value
func (s *Store[T]) Put(ctx context.Context, key string, val *T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", s.prefix, err)
	}
	return s.backend.Set(ctx, s.prefix+key, data, s.ttl)
}

// Get returns the value stored under key without removing it
func (s *Store[T]) Get(ctx context.Context, key string) (*T, error) {
	data, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// Take atomically returns and removes the value stored under key. Of two
// concurrent Takes on the same key only one succeeds.
func (s *Store[T]) Take(ctx context.Context, key string) (*T, error) {
	data, err := s.backend.GetDel(ctx, s.prefix+key)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	return s.backend.Del(ctx, s.prefix+key)
}

func (s *Store[T]) decode(data []byte) (*T, error) {
	var val T
	if err := json.Unmarshal(data, &val); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", s.prefix, err)
	}
	return &val, nil
}
