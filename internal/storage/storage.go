// Package storage models the client-local key/value slots the donation flow
// persists into: a per-session store that lives as long as the process, and
// durable stores (SQLite in package db, DynamoDB here) for history.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed the store's quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned when the backing service cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is a string key/value slot store.
type Store interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem writes value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// DefaultSessionQuota mirrors the usual browser session storage budget.
const DefaultSessionQuota = 5 << 20

// Memory is an in-process Store with an optional byte quota counted over
// keys and values. A zero quota means unlimited.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	used  int
	quota int
}

// NewMemory creates an empty in-memory store.
func NewMemory(quota int) *Memory {
	return &Memory{items: make(map[string]string), quota: quota}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + len(key) + len(value)
	if old, ok := m.items[key]; ok {
		used -= len(key) + len(old)
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	m.used = used
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.items, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

type prefixed struct {
	store  Store
	prefix string
}

// WithPrefix scopes every key of store under prefix, giving each donation
// session its own slot namespace in a shared store.
func WithPrefix(store Store, prefix string) Store {
	return &prefixed{store: store, prefix: prefix}
}

func (p *prefixed) GetItem(ctx context.Context, key string) (string, bool, error) {
	return p.store.GetItem(ctx, p.prefix+key)
}

func (p *prefixed) SetItem(ctx context.Context, key, value string) error {
	return p.store.SetItem(ctx, p.prefix+key, value)
}

func (p *prefixed) RemoveItem(ctx context.Context, key string) error {
	return p.store.RemoveItem(ctx, p.prefix+key)
}
