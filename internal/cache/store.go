// Package cache provides a byte-oriented key/value store with per-key
// expiry. Values are opaque to the store; encoding happens in callers.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Sentinels returned by TTL, mirroring Redis semantics.
const (
	TTLMissing  time.Duration = -2 * time.Second
	TTLNoExpiry time.Duration = -1 * time.Second
)

// Store is the contract shared by every backend. Set with ttl <= 0 stores
// the value without expiry. TTL never fails on absence: it returns
// TTLMissing instead.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Namespaced prefixes every key with "<prefix>:".
type Namespaced struct {
	prefix string
	store  Store
}

func NewNamespaced(store Store, prefix string) *Namespaced {
	return &Namespaced{prefix: prefix, store: store}
}

func (n *Namespaced) Key(key string) string {
	return n.prefix + ":" + key
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.Key(key))
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.store.Set(ctx, n.Key(key), value, ttl)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.Key(key))
}

func (n *Namespaced) TTL(ctx context.Context, key string) (time.Duration, error) {
	return n.store.TTL(ctx, n.Key(key))
}
