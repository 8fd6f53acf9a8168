// Package storage provides the key-value persistence collaborator used for
// the store display name and the serialized daily ledger.
package storage

import (
	"context"
	"sync"
)

// Slots used by the billing session.
const (
	KeyStoreName = "billing:store_name"
	KeyLedger    = "billing:daily_ledger"
)

// KV is a minimal two-operation key-value store. Writes are best-effort
// side effects: callers log failures but never roll back in-memory state.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value, overwriting any previous one.
	Set(ctx context.Context, key, value string) error
}

// Memory is an in-process KV used when no Redis is configured and in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
