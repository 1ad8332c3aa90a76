// Package store holds the service's only mutable state: the ops config KV
// and the last export snapshot. The KV runs on Redis when a URL is
// configured and on an in-process map otherwise.
package store

import (
	"context"
	"sync"
)

// KV is the minimal key-value surface the ops endpoints use.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	HSet(ctx context.Context, name, key, value string) error
	HGetAll(ctx context.Context, name string) (map[string]string, error)
	// Reset drops everything the store holds.
	Reset(ctx context.Context) error
}

// Memory is the fallback KV backend.
type Memory struct {
	mu     sync.RWMutex
	kv     map[string]string
	hashes map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		kv:     make(map[string]string),
		hashes: make(map[string]map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *Memory) HSet(_ context.Context, name, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[name]
	if !ok {
		h = make(map[string]string)
		m.hashes[name] = h
	}
	h[key] = value
	return nil
}

func (m *Memory) HGetAll(_ context.Context, name string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.hashes[name]))
	for k, v := range m.hashes[name] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv = make(map[string]string)
	m.hashes = make(map[string]map[string]string)
	return nil
}
